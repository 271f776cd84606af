package models

import "time"

// Setting 键值配置（运行期可调整的业务参数）
type Setting struct {
	Key       string    `gorm:"primarykey;type:varchar(64)" json:"key"`
	ValueJSON JSON      `gorm:"type:json" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}
