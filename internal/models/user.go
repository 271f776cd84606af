package models

import "time"

// Wallet 用户钱包余额桶，只能通过原子增量修改
type Wallet struct {
	TotalEarnings     Money `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`
	PendingCashback   Money `gorm:"type:decimal(20,2);not null;default:0" json:"pending_cashback"`
	ConfirmedCashback Money `gorm:"type:decimal(20,2);not null;default:0" json:"confirmed_cashback"`
	AvailableBalance  Money `gorm:"type:decimal(20,2);not null;default:0" json:"available_balance"`
	TotalWithdrawn    Money `gorm:"type:decimal(20,2);not null;default:0" json:"total_withdrawn"`
	ReferralEarnings  Money `gorm:"type:decimal(20,2);not null;default:0" json:"referral_earnings"`
}

// User 用户
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`                            // 主键
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`               // 邮箱
	Name         string    `gorm:"type:varchar(120);default:''" json:"name"`        // 昵称
	Status       string    `gorm:"type:varchar(20);default:'active'" json:"status"` // 账号状态
	ReferralCode string    `gorm:"type:varchar(32);index" json:"referral_code"`     // 邀请码
	ReferredByID *uint     `gorm:"index" json:"referred_by_id"`                     // 邀请人
	Wallet       Wallet    `gorm:"embedded;embeddedPrefix:wallet_" json:"wallet"`   // 钱包
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
