package repository

import "time"

// StoreListFilter 商家列表过滤条件
type StoreListFilter struct {
	Page       int
	PageSize   int
	Search     string
	ActiveOnly bool
}

// ProductListFilter 商品列表过滤条件
type ProductListFilter struct {
	Page     int
	PageSize int
	StoreID  uint
	Search   string
}

// CategoryCommissionListFilter 分类佣金规则过滤条件
type CategoryCommissionListFilter struct {
	Page       int
	PageSize   int
	StoreID    uint
	GlobalOnly bool
}

// LinkListFilter 分享链接过滤条件
type LinkListFilter struct {
	Page     int
	PageSize int
	UserID   uint
}

// TransactionListFilter 交易列表过滤条件
type TransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Network     string
	Status      string
	OrderID     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WebhookEventListFilter 回调事件过滤条件
type WebhookEventListFilter struct {
	Page     int
	PageSize int
	Source   string
	Status   string
}
