package models

import "time"

// AffiliateClick 推广链接点击记录，同访客同目标 10 分钟内只记一次
type AffiliateClick struct {
	ID                 uint      `gorm:"primarykey" json:"id"`                                                             // 主键
	AffiliateProfileID uint      `gorm:"not null;index:idx_affiliate_click_dedupe,priority:1" json:"affiliate_profile_id"` // 推广用户ID
	AffiliateCode      string    `gorm:"type:varchar(32);not null;index" json:"affiliate_code"`                            // 推广码
	VisitorKey         string    `gorm:"type:varchar(128);index:idx_affiliate_click_dedupe,priority:2" json:"visitor_key"` // 访客标识
	Destination        string    `gorm:"type:varchar(512)" json:"destination"`                                             // 目标页面
	Source             string    `gorm:"type:varchar(64)" json:"source"`                                                   // 来源渠道
	Referrer           string    `gorm:"type:varchar(1024)" json:"referrer"`                                               // 来源地址
	ClientIP           string    `gorm:"type:varchar(64)" json:"client_ip"`                                                // 客户端IP
	UserAgent          string    `gorm:"type:varchar(1024)" json:"user_agent"`                                             // 客户端UA
	CreatedAt          time.Time `gorm:"index;index:idx_affiliate_click_dedupe,priority:3;not null" json:"created_at"`     // 创建时间
}

// TableName 指定表名
func (AffiliateClick) TableName() string {
	return "affiliate_clicks"
}
