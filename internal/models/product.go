package models

import "time"

// CommissionOverride 商品级佣金覆盖
type CommissionOverride struct {
	Rate   Money  `gorm:"type:decimal(20,2);not null;default:0" json:"rate"`
	Type   string `gorm:"type:varchar(20);default:''" json:"type"`
	MaxCap Money  `gorm:"type:decimal(20,2);not null;default:0" json:"max_cap"`
}

// Enabled 是否配置了覆盖
func (o CommissionOverride) Enabled() bool {
	return o.Type != "" && o.Rate.IsPositive()
}

// Product 可推广商品
type Product struct {
	ID                 uint               `gorm:"primarykey" json:"id"`
	StoreID            uint               `gorm:"not null;index" json:"store_id"`
	Title              string             `gorm:"type:varchar(255);not null" json:"title"`
	Deeplink           string             `gorm:"type:varchar(2048)" json:"deeplink"` // 商品落地页
	MerchantHost       string             `gorm:"type:varchar(255);index" json:"merchant_host"`
	CategoryKey        string             `gorm:"type:varchar(64);index" json:"category_key"`
	CommissionOverride CommissionOverride `gorm:"embedded;embeddedPrefix:override_" json:"commission_override"`
	IsActive           bool               `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt          time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`

	Store Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
