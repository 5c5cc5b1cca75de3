package models

import (
	"time"

	"gorm.io/gorm"
)

// Identity 注册用户身份
type Identity struct {
	ID             uint           `gorm:"primarykey" json:"id"`                            // 主键
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`               // 邮箱
	PasswordHash   string         `gorm:"not null" json:"-"`                               // 密码哈希（不返回给前端）
	Name           string         `gorm:"type:varchar(120);default:''" json:"name"`        // 姓名
	Phone          string         `gorm:"type:varchar(32);default:''" json:"phone"`        // 手机号
	Locale         string         `gorm:"type:varchar(16);default:'pt-BR'" json:"locale"`  // 语言偏好
	ReferredByCode string         `gorm:"type:varchar(32);index" json:"referred_by_code"`  // 注册时的归因推广码
	Status         string         `gorm:"type:varchar(20);default:'active'" json:"status"` // 账号状态
	TokenVersion   uint64         `gorm:"not null;default:0" json:"-"`                     // Token 版本（用于全量失效）
	LastLoginAt    *time.Time     `json:"last_login_at"`                                   // 最后登录时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (Identity) TableName() string {
	return "identities"
}
