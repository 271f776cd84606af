package models

import "time"

// Click 点击归因记录，ClickID 为跨系统关联键
type Click struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	ClickID       string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"click_id"`
	UserID        *uint     `gorm:"index" json:"user_id"`
	StoreID       *uint     `gorm:"index" json:"store_id"`
	ProductID     *uint     `gorm:"index" json:"product_id"`
	LinkID        *uint     `gorm:"index" json:"link_id"`
	CustomSlug    string    `gorm:"type:varchar(32);index" json:"custom_slug"`
	Provider      string    `gorm:"type:varchar(32)" json:"provider"`
	AffiliateLink string    `gorm:"type:varchar(2048)" json:"affiliate_link"`
	IPAddress     string    `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent     string    `gorm:"type:varchar(1024)" json:"user_agent"`
	Referrer      string    `gorm:"type:varchar(1024)" json:"referrer"`
	Metadata      JSON      `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Click) TableName() string {
	return "clicks"
}
