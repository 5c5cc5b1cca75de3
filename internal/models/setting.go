package models

import "time"

// Setting 运行时可调设置（佣金比例、验证码等），按键存 JSON
type Setting struct {
	Key       string    `gorm:"primarykey;type:varchar(64)" json:"key"` // 配置键
	ValueJSON JSON      `gorm:"type:json" json:"value"`                 // 配置值
	UpdatedAt time.Time `json:"updated_at"`                             // 最近修改时间
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}
