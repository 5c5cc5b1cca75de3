package models

import (
	"time"

	"gorm.io/gorm"
)

// AffiliateProfile 推广用户档案
type AffiliateProfile struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	IdentityID      uint           `gorm:"not null;uniqueIndex" json:"identity_id"`                       // 身份ID（一人一档）
	AffiliateCode   string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`             // 推广码（AGD + 6 位数字）
	Tier            string         `gorm:"type:varchar(20);not null;index" json:"tier"`                   // 推广等级（开通时确定）
	CommissionRate  Money          `gorm:"type:decimal(10,2);not null;default:0" json:"commission_rate"`  // 等级佣金比例（百分比）
	LeaderProfileID *uint          `gorm:"index" json:"leader_profile_id,omitempty"`                      // 上级推广用户ID
	TotalSales      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_sales"`      // 累计成交金额
	TotalCommission Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_commission"` // 累计佣金金额
	ClickCount      int64          `gorm:"not null;default:0" json:"click_count"`                         // 累计点击数（统计用，允许丢失更新）
	Status          string         `gorm:"type:varchar(20);not null;index" json:"status"`                 // 状态
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Identity Identity `gorm:"foreignKey:IdentityID" json:"identity,omitempty"` // 身份信息
}

// TableName 指定表名
func (AffiliateProfile) TableName() string {
	return "affiliate_profiles"
}
