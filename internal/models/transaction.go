package models

import "time"

// Transaction 联盟网络回传的订单
type Transaction struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OrderKey         string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"order_key"` // <network>:<orderId>
	OrderID          string    `gorm:"type:varchar(160);not null" json:"order_id"`
	Network          string    `gorm:"type:varchar(32);not null;index" json:"network"`
	UserID           *uint     `gorm:"index" json:"user_id"`
	AffiliateID      *uint     `gorm:"index" json:"affiliate_id"` // 显式指定的受益人
	StoreID          *uint     `gorm:"index" json:"store_id"`
	ProductID        *uint     `gorm:"index" json:"product_id"`
	LinkID           *uint     `gorm:"index" json:"link_id"`
	ClickID          string    `gorm:"type:varchar(64);index" json:"click_id"`
	CategoryKey      string    `gorm:"type:varchar(64)" json:"category_key"`
	ProductAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"product_amount"`
	CommissionAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`
	Currency         string    `gorm:"type:varchar(8)" json:"currency"`
	Status           string    `gorm:"type:varchar(20);not null;index" json:"status"`
	TrackingData     JSON      `gorm:"type:json" json:"tracking_data"`
	AffiliateData    JSON      `gorm:"type:json" json:"affiliate_data"`
	Notes            string    `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}

// BeneficiaryID 佣金受益人：显式 affiliate 优先，其次点击所属用户
func (t *Transaction) BeneficiaryID() *uint {
	if t.AffiliateID != nil && *t.AffiliateID != 0 {
		return t.AffiliateID
	}
	if t.UserID != nil && *t.UserID != 0 {
		return t.UserID
	}
	return nil
}
