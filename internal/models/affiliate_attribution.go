package models

import "time"

// AffiliateAttribution 访客归因记录（长期存储，每个访客仅一条）
type AffiliateAttribution struct {
	ID                 uint      `gorm:"primarykey" json:"id"`                                             // 主键
	VisitorKey         string    `gorm:"type:varchar(128);not null;uniqueIndex" json:"visitor_key"`        // 访客标识
	AffiliateProfileID uint      `gorm:"not null;index" json:"affiliate_profile_id"`                       // 推广用户ID
	AffiliateCode      string    `gorm:"type:varchar(32);not null;index" json:"affiliate_code"`            // 推广码
	SourceChannel      string    `gorm:"type:varchar(64);not null;default:'direct'" json:"source_channel"` // 来源渠道
	DestinationPage    string    `gorm:"type:varchar(512)" json:"destination_page"`                        // 落地页面
	CapturedAt         time.Time `gorm:"not null" json:"captured_at"`                                      // 捕获时间
	ExpiresAt          time.Time `gorm:"not null;index" json:"expires_at"`                                 // 过期时间
}

// TableName 指定表名
func (AffiliateAttribution) TableName() string {
	return "affiliate_attributions"
}

// ActiveAt 判断归因在给定时间是否仍有效
func (a *AffiliateAttribution) ActiveAt(now time.Time) bool {
	return a != nil && now.Before(a.ExpiresAt)
}
