package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateProfileListFilter 查询推广档案列表的过滤条件
type AffiliateProfileListFilter struct {
	Page       int
	PageSize   int
	IdentityID uint
	Code       string
	Status     string
	Tier       string
	Keyword    string
}

// CommissionListFilter 查询佣金列表的过滤条件
type CommissionListFilter struct {
	Page               int
	PageSize           int
	AffiliateProfileID uint
	InvestmentID       uint
	CommissionType     string
	Status             string
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
}

// InvestmentListFilter 查询投资列表的过滤条件
type InvestmentListFilter struct {
	Page               int
	PageSize           int
	IdentityID         uint
	AffiliateProfileID uint
	PlanID             string
	Status             string
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
}

// LeadListFilter 查询线索列表的过滤条件
type LeadListFilter struct {
	Page           int
	PageSize       int
	Email          string
	ProfileSegment string
	Branch         string
	AffiliateCode  string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// AdminAuditLogListFilter 查询后台审计日志列表的过滤条件
type AdminAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	Action          string
	TargetType      string
	TargetID        uint
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// AffiliateProfileStatsAggregate 推广档案统计聚合
type AffiliateProfileStatsAggregate struct {
	ClickCount          int64
	ConvertedCount      int64
	PendingCommission   decimal.Decimal
	PaidCommission      decimal.Decimal
	CancelledCommission decimal.Decimal
}
