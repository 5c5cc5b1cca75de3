package models

import (
	"time"

	"gorm.io/gorm"
)

// Commission 推广佣金记录（同一笔投资、同一推广用户、同一类型仅一条）
type Commission struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                                                                 // 主键
	AffiliateProfileID uint           `gorm:"not null;index;index:idx_commission_unique,unique" json:"affiliate_profile_id"`                        // 推广用户ID
	InvestmentID       uint           `gorm:"not null;index;index:idx_commission_unique,unique" json:"investment_id"`                               // 投资ID
	CommissionType     string         `gorm:"type:varchar(20);not null;default:'direct';index:idx_commission_unique,unique" json:"commission_type"` // 佣金类型
	BaseAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_amount"`                                             // 佣金基数金额
	Percentage         Money          `gorm:"type:decimal(10,2);not null;default:0" json:"percentage"`                                              // 佣金比例（百分比）
	Amount             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                                  // 佣金金额
	Status             string         `gorm:"type:varchar(20);not null;index" json:"status"`                                                        // 佣金状态
	GeneratedAt        time.Time      `gorm:"not null;index" json:"generated_at"`                                                                   // 生成时间
	PaidAt             *time.Time     `gorm:"index" json:"paid_at,omitempty"`                                                                       // 支付时间
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`                                                                               // 取消时间
	CancelReason       string         `gorm:"type:varchar(255)" json:"cancel_reason"`                                                               // 取消原因
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                                                              // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                                                              // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                                                       // 软删除时间

	AffiliateProfile AffiliateProfile `gorm:"foreignKey:AffiliateProfileID" json:"affiliate_profile,omitempty"` // 推广用户
	Investment       Investment       `gorm:"foreignKey:InvestmentID" json:"investment,omitempty"`              // 关联投资
}

// TableName 指定表名
func (Commission) TableName() string {
	return "affiliate_commissions"
}
