package catalog

import (
	"errors"
	"testing"

	"github.com/agd-funnel/internal/constants"

	"github.com/shopspring/decimal"
)

func TestDeriveTierBoundaries(t *testing.T) {
	cases := []struct {
		amount int64
		tier   string
		rate   int64
	}{
		{amount: 0, tier: constants.TierBronze, rate: 5},
		{amount: 999, tier: constants.TierBronze, rate: 5},
		{amount: 1000, tier: constants.TierSilver, rate: 8},
		{amount: 2999, tier: constants.TierSilver, rate: 8},
		{amount: 3000, tier: constants.TierGold, rate: 10},
		{amount: 4999, tier: constants.TierGold, rate: 10},
		{amount: 5000, tier: constants.TierPlatinum, rate: 12},
		{amount: 9999, tier: constants.TierPlatinum, rate: 12},
		{amount: 10000, tier: constants.TierElite, rate: 15},
		{amount: 250000, tier: constants.TierElite, rate: 15},
	}
	for _, tc := range cases {
		rule := DeriveTier(decimal.NewFromInt(tc.amount))
		if rule.Tier != tc.tier {
			t.Fatalf("amount %d: want tier %s, got %s", tc.amount, tc.tier, rule.Tier)
		}
		if !rule.CommissionRate.Equal(decimal.NewFromInt(tc.rate)) {
			t.Fatalf("amount %d: want rate %d, got %s", tc.amount, tc.rate, rule.CommissionRate.String())
		}
	}
}

func TestDeriveTierFractionalBelowBoundary(t *testing.T) {
	rule := DeriveTier(decimal.RequireFromString("9999.99"))
	if rule.Tier != constants.TierPlatinum {
		t.Fatalf("want platinum, got %s", rule.Tier)
	}
}

func TestFindPlan(t *testing.T) {
	plan, err := FindPlan(" Professional ")
	if err != nil {
		t.Fatalf("find plan failed: %v", err)
	}
	if !plan.MonthlyValue.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected monthly value: %s", plan.MonthlyValue.String())
	}
	if !plan.AffiliateBonusPercent.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("unexpected affiliate bonus: %s", plan.AffiliateBonusPercent.String())
	}

	if _, err := FindPlan("platinum-plus"); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("want ErrPlanNotFound, got %v", err)
	}
	if _, err := FindPlan(""); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("want ErrPlanNotFound for empty id, got %v", err)
	}
}

func TestMinimumEligibleAmount(t *testing.T) {
	if got := MinimumEligibleAmount(); !got.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("want 1500, got %s", got.String())
	}
}

func TestPlansSortedAscending(t *testing.T) {
	list := Plans()
	if len(list) != 4 {
		t.Fatalf("want 4 plans, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].MonthlyValue.LessThan(list[i-1].MonthlyValue) {
			t.Fatalf("plans not ascending at %d", i)
		}
	}
	list[0].ID = "mutated"
	if _, err := FindPlan(PlanStarter); err != nil {
		t.Fatalf("catalog mutated through Plans copy: %v", err)
	}
}
