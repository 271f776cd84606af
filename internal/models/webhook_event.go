package models

import "time"

// WebhookEvent 回调原始事件审计日志
type WebhookEvent struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	Source        string     `gorm:"type:varchar(32);not null;index" json:"source"`
	EventType     string     `gorm:"type:varchar(32)" json:"event_type"`
	Method        string     `gorm:"type:varchar(8)" json:"method"`
	Headers       JSON       `gorm:"type:json" json:"headers"`
	Payload       JSON       `gorm:"type:json" json:"payload"`
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	TransactionID *uint      `gorm:"index" json:"transaction_id"`
	Error         string     `gorm:"type:varchar(255)" json:"error"`
	ProcessedAt   *time.Time `json:"processed_at"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
