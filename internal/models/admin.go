package models

import "time"

// Admin 管理员
type Admin struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                             // 主键
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`                             // 账号
	PasswordHash string     `gorm:"not null" json:"-"`                                                // 密码哈希
	Role         string     `gorm:"type:varchar(32);not null;default:'readonly_auditor'" json:"role"` // casbin 角色
	LastLoginAt  *time.Time `json:"last_login_at"`                                                    // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                          // 创建时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
