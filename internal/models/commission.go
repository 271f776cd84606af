package models

import "time"

// Commission 佣金记录，每笔交易至多一条
type Commission struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	AffiliateID   uint       `gorm:"not null;index" json:"affiliate_id"`
	StoreID       *uint      `gorm:"index" json:"store_id"`
	TransactionID uint       `gorm:"not null;uniqueIndex" json:"transaction_id"`
	Amount        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Rate          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"rate"`
	Type          string     `gorm:"type:varchar(20);not null" json:"type"`
	Rule          string     `gorm:"type:varchar(32)" json:"rule"` // 命中的规则来源
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	Metadata      JSON       `gorm:"type:json" json:"metadata"`
	ApprovedAt    *time.Time `json:"approved_at"`
	PaidAt        *time.Time `json:"paid_at"`
	ReversedAt    *time.Time `json:"reversed_at"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (Commission) TableName() string {
	return "commissions"
}
