package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Investment 代币认购记录（销售）
type Investment struct {
	ID                 uint            `gorm:"primarykey" json:"id"`                                       // 主键
	IdentityID         uint            `gorm:"not null;index" json:"identity_id"`                          // 买家身份ID
	PlanID             string          `gorm:"type:varchar(32);not null;index" json:"plan_id"`             // 套餐ID
	Amount             Money           `gorm:"type:decimal(20,2);not null" json:"amount"`                  // 认购金额
	BonusPercent       Money           `gorm:"type:decimal(10,2);not null;default:0" json:"bonus_percent"` // 下单时的奖励比例快照
	BonusTokens        decimal.Decimal `gorm:"type:decimal(24,4);not null;default:0" json:"bonus_tokens"`  // 奖励后代币数量
	AffiliateProfileID *uint           `gorm:"index" json:"affiliate_profile_id,omitempty"`                // 归因推广用户ID
	AffiliateCode      string          `gorm:"type:varchar(32);index" json:"affiliate_code"`               // 归因推广码
	Status             string          `gorm:"type:varchar(20);not null;index" json:"status"`              // 状态
	PurchaseDate       time.Time       `gorm:"not null;index" json:"purchase_date"`                        // 认购时间
	UnlockDate         time.Time       `gorm:"not null;index" json:"unlock_date"`                          // 解锁时间（创建时确定）
	ConfirmedAt        *time.Time      `gorm:"index" json:"confirmed_at,omitempty"`                        // 确认时间
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`                                     // 取消时间
	PaymentRef         string          `gorm:"type:varchar(128);index" json:"payment_ref"`                 // PIX 支付单号
	PixCopyPaste       string          `gorm:"type:text" json:"pix_copy_paste"`                            // PIX 复制粘贴码
	PixQRCode          string          `gorm:"type:text" json:"pix_qr_code"`                               // PIX 二维码（base64）
	PixExpiresAt       *time.Time      `json:"pix_expires_at,omitempty"`                                   // PIX 过期时间
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt          time.Time       `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`                                             // 软删除时间

	Identity Identity `gorm:"foreignKey:IdentityID" json:"identity,omitempty"` // 买家信息
}

// TableName 指定表名
func (Investment) TableName() string {
	return "investments"
}
