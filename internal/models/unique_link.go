package models

import "time"

// UniqueLink 用户生成的分享链接
type UniqueLink struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	StoreID        *uint     `gorm:"index" json:"store_id"`
	ProductID      *uint     `gorm:"index" json:"product_id"`
	Slug           string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"slug"`
	Mode           string    `gorm:"type:varchar(10);not null" json:"mode"` // eager / lazy
	Provider       string    `gorm:"type:varchar(32);not null" json:"provider"`
	CampaignID     string    `gorm:"type:varchar(64)" json:"campaign_id"`
	OriginalURL    string    `gorm:"type:varchar(2048)" json:"original_url"`
	DestinationURL string    `gorm:"type:varchar(2048);not null" json:"destination_url"` // 展开并改写后的落地页
	GeneratedLink  string    `gorm:"type:varchar(2048)" json:"generated_link"`           // eager 模式预先生成
	IssueClickID   string    `gorm:"type:varchar(32)" json:"issue_click_id"`             // eager 模式签发时的点击
	Clicks         int64     `gorm:"not null;default:0" json:"clicks"`
	Conversions    int64     `gorm:"not null;default:0" json:"conversions"`
	Metadata       JSON      `gorm:"type:json" json:"metadata"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Store *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
}

// TableName 指定表名
func (UniqueLink) TableName() string {
	return "unique_links"
}
