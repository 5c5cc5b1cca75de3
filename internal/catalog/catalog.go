// Package catalog 提供只读的代币认购套餐目录与推广等级阶梯。
package catalog

import (
	"errors"
	"sort"
	"strings"

	"github.com/agd-funnel/internal/constants"

	"github.com/shopspring/decimal"
)

// ErrPlanNotFound 套餐不存在
var ErrPlanNotFound = errors.New("plan not found")

// Plan 认购套餐
type Plan struct {
	ID                    string          `json:"id"`
	MonthlyValue          decimal.Decimal `json:"monthly_value"`
	CommitmentMonths      int             `json:"commitment_months"`
	BonusPercent          decimal.Decimal `json:"bonus_percent"`
	AffiliateBonusPercent decimal.Decimal `json:"affiliate_bonus_percent"`
	LockPeriodDays        int             `json:"lock_period_days"`
	TokensPerCurrencyUnit decimal.Decimal `json:"tokens_per_currency_unit"`
}

// TierRule 推广等级阶梯规则
type TierRule struct {
	Tier           string          `json:"tier"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
	PlanElite        = "elite"
)

func newPlan(id string, monthly int64, bonus, affiliateBonus int64, lockDays int) Plan {
	return Plan{
		ID:                    id,
		MonthlyValue:          decimal.NewFromInt(monthly),
		CommitmentMonths:      12,
		BonusPercent:          decimal.NewFromInt(bonus),
		AffiliateBonusPercent: decimal.NewFromInt(affiliateBonus),
		LockPeriodDays:        lockDays,
		TokensPerCurrencyUnit: decimal.NewFromInt(1),
	}
}

var plans = []Plan{
	newPlan(PlanStarter, 1500, 10, 10, 180),
	newPlan(PlanProfessional, 3000, 15, 12, 180),
	newPlan(PlanEnterprise, 5000, 20, 15, 365),
	newPlan(PlanElite, 10000, 25, 18, 365),
}

// tierLadder 按下限从高到低排列，匹配第一条满足的规则
var tierLadder = []TierRule{
	{Tier: constants.TierElite, MinAmount: decimal.NewFromInt(10000), CommissionRate: decimal.NewFromInt(15)},
	{Tier: constants.TierPlatinum, MinAmount: decimal.NewFromInt(5000), CommissionRate: decimal.NewFromInt(12)},
	{Tier: constants.TierGold, MinAmount: decimal.NewFromInt(3000), CommissionRate: decimal.NewFromInt(10)},
	{Tier: constants.TierSilver, MinAmount: decimal.NewFromInt(1000), CommissionRate: decimal.NewFromInt(8)},
	{Tier: constants.TierBronze, MinAmount: decimal.Zero, CommissionRate: decimal.NewFromInt(5)},
}

// Plans 返回全部套餐（按月额升序）
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MonthlyValue.LessThan(out[j].MonthlyValue)
	})
	return out
}

// FindPlan 按 ID 查找套餐，不存在时返回 ErrPlanNotFound
func FindPlan(id string) (Plan, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	for _, plan := range plans {
		if plan.ID == normalized {
			return plan, nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

// DeriveTier 根据金额推导推广等级（下限包含）
func DeriveTier(amount decimal.Decimal) TierRule {
	for _, rule := range tierLadder {
		if amount.GreaterThanOrEqual(rule.MinAmount) {
			return rule
		}
	}
	return tierLadder[len(tierLadder)-1]
}

// TierLadder 返回等级阶梯副本（从高到低）
func TierLadder() []TierRule {
	out := make([]TierRule, len(tierLadder))
	copy(out, tierLadder)
	return out
}

// MinimumEligibleAmount 开通推广所需的最低认购金额（最低套餐月额）
func MinimumEligibleAmount() decimal.Decimal {
	minimum := plans[0].MonthlyValue
	for _, plan := range plans[1:] {
		if plan.MonthlyValue.LessThan(minimum) {
			minimum = plan.MonthlyValue
		}
	}
	return minimum
}
