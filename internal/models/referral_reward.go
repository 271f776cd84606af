package models

import "time"

// ReferralReward 邀请奖励，(transaction, referrer) 唯一
type ReferralReward struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	TransactionID uint       `gorm:"not null;uniqueIndex:idx_referral_reward_tx_referrer" json:"transaction_id"`
	ReferrerID    uint       `gorm:"not null;uniqueIndex:idx_referral_reward_tx_referrer" json:"referrer_id"`
	ReferredID    uint       `gorm:"not null;index" json:"referred_id"`
	Amount        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	ReversedAt    *time.Time `json:"reversed_at"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (ReferralReward) TableName() string {
	return "referral_rewards"
}
