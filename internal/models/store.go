package models

import "time"

// Store 商家（联盟广告主）
type Store struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	Name             string    `gorm:"type:varchar(120);not null" json:"name"`
	Host             string    `gorm:"type:varchar(255);index" json:"host"` // 主域名，用于自动识别商家
	BaseURL          string    `gorm:"type:varchar(1024)" json:"base_url"`
	AffiliateNetwork string    `gorm:"type:varchar(32)" json:"affiliate_network"` // 首选联盟网络
	CampaignID       string    `gorm:"type:varchar(64)" json:"campaign_id"`
	CommissionRate   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"commission_rate"`
	CommissionType   string    `gorm:"type:varchar(20);not null;default:'percentage'" json:"commission_type"`
	MaxCommission    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"max_commission"` // 0 表示不封顶
	CookieDuration   int       `gorm:"not null;default:30" json:"cookie_duration"`                  // 天
	IsActive         bool      `gorm:"not null;default:true;index" json:"is_active"`
	TotalClicks      int64     `gorm:"not null;default:0" json:"total_clicks"`
	TotalConversions int64     `gorm:"not null;default:0" json:"total_conversions"`
	TotalCommission  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_commission"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Store) TableName() string {
	return "stores"
}
