package models

import "time"

// CategoryCommission 分类佣金规则；StoreID 为空表示全局规则
type CategoryCommission struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	StoreID        *uint     `gorm:"uniqueIndex:idx_category_commission_scope" json:"store_id"`
	CategoryKey    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_category_commission_scope" json:"category_key"`
	Label          string    `gorm:"type:varchar(120)" json:"label"`
	CommissionRate Money     `gorm:"type:decimal(20,2);not null;default:0" json:"commission_rate"`
	CommissionType string    `gorm:"type:varchar(20);not null;default:'percentage'" json:"commission_type"`
	MaxCap         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"max_cap"` // 0 表示不封顶
	IsActive       bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (CategoryCommission) TableName() string {
	return "category_commissions"
}
