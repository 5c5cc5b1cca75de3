package service

import (
	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"

	"github.com/shopspring/decimal"
)

// IsEligibleForAffiliate 至少一笔已确认且不低于最低套餐月额的投资即可开通推广
func IsEligibleForAffiliate(investments []models.Investment) bool {
	minimum := catalog.MinimumEligibleAmount()
	for _, item := range investments {
		if item.Status != constants.InvestmentStatusConfirmed {
			continue
		}
		if item.Amount.Decimal.GreaterThanOrEqual(minimum) {
			return true
		}
	}
	return false
}

// SuggestedTier 按投资最大金额推导等级，不区分投资状态
func SuggestedTier(investments []models.Investment) catalog.TierRule {
	maxAmount := decimal.Zero
	for _, item := range investments {
		if item.Amount.Decimal.GreaterThan(maxAmount) {
			maxAmount = item.Amount.Decimal
		}
	}
	return catalog.DeriveTier(maxAmount)
}

func confirmedOnly(investments []models.Investment) []models.Investment {
	result := make([]models.Investment, 0, len(investments))
	for _, item := range investments {
		if item.Status == constants.InvestmentStatusConfirmed {
			result = append(result, item)
		}
	}
	return result
}
