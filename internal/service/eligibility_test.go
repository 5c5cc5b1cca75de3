package service

import (
	"testing"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"
)

func investmentOf(amount int64, status string) models.Investment {
	return models.Investment{Amount: models.NewMoneyFromInt(amount), Status: status}
}

func TestIsEligibleForAffiliate(t *testing.T) {
	cases := []struct {
		name        string
		investments []models.Investment
		want        bool
	}{
		{name: "empty", investments: nil, want: false},
		{name: "below minimum", investments: []models.Investment{investmentOf(1499, constants.InvestmentStatusConfirmed)}, want: false},
		{name: "at minimum", investments: []models.Investment{investmentOf(1500, constants.InvestmentStatusConfirmed)}, want: true},
		{name: "pending only", investments: []models.Investment{investmentOf(5000, constants.InvestmentStatusPending)}, want: false},
		{name: "mixed", investments: []models.Investment{
			investmentOf(5000, constants.InvestmentStatusCancelled),
			investmentOf(3000, constants.InvestmentStatusConfirmed),
		}, want: true},
	}
	for _, tc := range cases {
		if got := IsEligibleForAffiliate(tc.investments); got != tc.want {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestSuggestedTier(t *testing.T) {
	cases := []struct {
		amounts []int64
		want    string
	}{
		{amounts: nil, want: constants.TierBronze},
		{amounts: []int64{999}, want: constants.TierBronze},
		{amounts: []int64{1000}, want: constants.TierSilver},
		{amounts: []int64{1500, 3000}, want: constants.TierGold},
		{amounts: []int64{9999}, want: constants.TierPlatinum},
		{amounts: []int64{10000, 100}, want: constants.TierElite},
	}
	for _, tc := range cases {
		investments := make([]models.Investment, 0, len(tc.amounts))
		for _, amount := range tc.amounts {
			investments = append(investments, investmentOf(amount, constants.InvestmentStatusConfirmed))
		}
		if got := SuggestedTier(investments).Tier; got != tc.want {
			t.Fatalf("amounts %v: want %s, got %s", tc.amounts, tc.want, got)
		}
	}
}

func TestSuggestedTierIgnoresStatusButConfirmedOnlyFilters(t *testing.T) {
	investments := []models.Investment{
		investmentOf(10000, constants.InvestmentStatusPending),
		investmentOf(1500, constants.InvestmentStatusConfirmed),
	}
	if got := SuggestedTier(investments).Tier; got != constants.TierElite {
		t.Fatalf("raw suggestion considers every investment, got %s", got)
	}
	if got := SuggestedTier(confirmedOnly(investments)).Tier; got != constants.TierSilver {
		t.Fatalf("confirmed-only suggestion should be silver, got %s", got)
	}
}
