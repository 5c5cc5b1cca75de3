package models

import "time"

// Lead 漏斗提交的潜在客户（创建后不可修改）
type Lead struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                    // 主键
	SessionID      string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"session_id"` // 漏斗会话ID（每个会话至多一条）
	Name           string    `gorm:"type:varchar(120);not null" json:"name"`                  // 姓名
	Email          string    `gorm:"type:varchar(255);not null;index" json:"email"`           // 邮箱
	ProfileSegment string    `gorm:"type:varchar(32);not null;index" json:"profile_segment"`  // 投资者画像
	LanguageCode   string    `gorm:"type:varchar(16);not null" json:"language_code"`          // 语言
	TokensEarned   int       `gorm:"not null;default:0" json:"tokens_earned"`                 // 获得的代币积分
	Branch         string    `gorm:"type:varchar(20);not null;index" json:"branch"`           // 漏斗分支（reward / opt_out）
	VisitorKey     string    `gorm:"type:varchar(128);index" json:"visitor_key"`              // 访客标识
	AffiliateCode  string    `gorm:"type:varchar(32);index" json:"affiliate_code"`            // 提交时的归因推广码
	SubmittedAt    time.Time `gorm:"not null;index" json:"submitted_at"`                      // 提交时间
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (Lead) TableName() string {
	return "leads"
}
