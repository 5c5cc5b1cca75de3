package service

import (
	"time"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SaleOutcome 一笔确认销售的计算结果
type SaleOutcome struct {
	BonusTokens      decimal.Decimal `json:"bonus_tokens"`
	DirectPercent    decimal.Decimal `json:"direct_percent"`
	DirectCommission decimal.Decimal `json:"direct_commission"`
	LeaderPercent    decimal.Decimal `json:"leader_percent"`
	LeaderCommission decimal.Decimal `json:"leader_commission"`
}

// ComputeSaleOutcome 计算买家奖励代币与两级佣金
// 上级佣金只发放一层，比例独立于直推比例
func ComputeSaleOutcome(plan catalog.Plan, amount decimal.Decimal, hasAffiliate, hasLeader bool, leaderRate decimal.Decimal) SaleOutcome {
	outcome := SaleOutcome{
		BonusTokens:      BonusTokensFor(plan, amount),
		DirectPercent:    decimal.Zero,
		DirectCommission: decimal.Zero,
		LeaderPercent:    decimal.Zero,
		LeaderCommission: decimal.Zero,
	}
	if !hasAffiliate || amount.LessThanOrEqual(decimal.Zero) {
		return outcome
	}
	outcome.DirectPercent = plan.AffiliateBonusPercent
	outcome.DirectCommission = percentOf(amount, plan.AffiliateBonusPercent)
	if hasLeader && leaderRate.GreaterThan(decimal.Zero) {
		outcome.LeaderPercent = leaderRate
		outcome.LeaderCommission = percentOf(amount, leaderRate)
	}
	return outcome
}

// BonusTokensFor 计算含奖励的代币数量
func BonusTokensFor(plan catalog.Plan, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	multiplier := decimal.NewFromInt(1).Add(plan.BonusPercent.Div(hundred))
	return amount.Mul(plan.TokensPerCurrencyUnit).Mul(multiplier).Round(4)
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(2)
}

// WithdrawalQuote 提现试算结果
type WithdrawalQuote struct {
	Principal      decimal.Decimal `json:"principal"`
	Bonus          decimal.Decimal `json:"bonus"`
	PenaltyPercent decimal.Decimal `json:"penalty_percent"`
	Amount         decimal.Decimal `json:"amount"`
	Unlocked       bool            `json:"unlocked"`
	Early          bool            `json:"early"`
	UnlockDate     time.Time       `json:"unlock_date"`
}

// ComputeWithdrawalAmount 计算投资可提现金额
// 锁定期内且未申请提前提现返回 0；申请提前提现无论是否解锁都扣除罚金
func ComputeWithdrawalAmount(investment models.Investment, earlyRequested bool, now time.Time, penaltyPercent decimal.Decimal) WithdrawalQuote {
	principal := investment.Amount.Decimal.Round(2)
	bonus := percentOf(principal, investment.BonusPercent.Decimal)
	quote := WithdrawalQuote{
		Principal:      principal,
		Bonus:          bonus,
		PenaltyPercent: decimal.Zero,
		Amount:         decimal.Zero,
		Unlocked:       !now.Before(investment.UnlockDate),
		Early:          earlyRequested,
		UnlockDate:     investment.UnlockDate,
	}
	if investment.Status != constants.InvestmentStatusConfirmed {
		return quote
	}
	gross := principal.Add(bonus)
	if earlyRequested {
		quote.PenaltyPercent = penaltyPercent
		quote.Amount = gross.Mul(decimal.NewFromInt(1).Sub(penaltyPercent.Div(hundred))).Round(2)
		return quote
	}
	if !quote.Unlocked {
		return quote
	}
	quote.Amount = gross
	return quote
}

// unlockDateFor 解锁时间 = 认购时间 + 套餐锁定天数
func unlockDateFor(plan catalog.Plan, purchaseDate time.Time) time.Time {
	return purchaseDate.AddDate(0, 0, plan.LockPeriodDays)
}
