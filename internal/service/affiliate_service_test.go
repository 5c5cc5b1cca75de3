package service

import (
	"errors"
	"testing"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/repository"
)

func TestBecomeAffiliateDerivesTierFromConfirmedInvestments(t *testing.T) {
	env := setupServiceTest(t)
	identity := env.createIdentity(t, "buyer@example.com", "")
	env.createInvestment(t, identity.ID, catalog.PlanEnterprise, 9999, constants.InvestmentStatusConfirmed)
	env.createInvestment(t, identity.ID, catalog.PlanElite, 20000, constants.InvestmentStatusPending)
	env.affiliate.codeGenerator = func() (string, error) { return "AGD654321", nil }

	profile, err := env.affiliate.BecomeAffiliate(identity.ID)
	if err != nil {
		t.Fatalf("become affiliate failed: %v", err)
	}
	if profile.Tier != constants.TierPlatinum {
		t.Fatalf("9999 confirmed should map to platinum, got %s", profile.Tier)
	}
	if profile.CommissionRate.String() != "12.00" {
		t.Fatalf("expected platinum rate 12.00, got %s", profile.CommissionRate.String())
	}
	if profile.AffiliateCode != "AGD654321" || !IsValidAffiliateCode(profile.AffiliateCode) {
		t.Fatalf("unexpected code: %s", profile.AffiliateCode)
	}
	if profile.LeaderProfileID != nil {
		t.Fatalf("no leader expected")
	}

	if _, err := env.affiliate.BecomeAffiliate(identity.ID); !errors.Is(err, ErrAffiliateAlreadyExists) || !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate open should conflict, got %v", err)
	}
}

func TestBecomeAffiliateRequiresEligibility(t *testing.T) {
	env := setupServiceTest(t)
	identity := env.createIdentity(t, "small@example.com", "")
	env.createInvestment(t, identity.ID, catalog.PlanStarter, 1000, constants.InvestmentStatusConfirmed)
	env.createInvestment(t, identity.ID, catalog.PlanProfessional, 3000, constants.InvestmentStatusPending)

	_, err := env.affiliate.BecomeAffiliate(identity.ID)
	if !errors.Is(err, ErrAffiliateNotEligible) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected not eligible, got %v", err)
	}
	if _, err := env.affiliate.BecomeAffiliate(9999); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected identity not found, got %v", err)
	}
}

func TestBecomeAffiliateLinksLeaderFromReferral(t *testing.T) {
	env := setupServiceTest(t)
	leaderIdentity := env.createIdentity(t, "leader@example.com", "")
	leader := env.createProfile(t, leaderIdentity.ID, "AGD100000", nil)

	identity := env.createIdentity(t, "member@example.com", "agd100000")
	env.createInvestment(t, identity.ID, catalog.PlanProfessional, 3000, constants.InvestmentStatusConfirmed)
	env.affiliate.codeGenerator = func() (string, error) { return "AGD200000", nil }

	profile, err := env.affiliate.BecomeAffiliate(identity.ID)
	if err != nil {
		t.Fatalf("become affiliate failed: %v", err)
	}
	if profile.LeaderProfileID == nil || *profile.LeaderProfileID != leader.ID {
		t.Fatalf("expected leader %d, got %v", leader.ID, profile.LeaderProfileID)
	}
	if profile.Tier != constants.TierGold {
		t.Fatalf("3000 should map to gold, got %s", profile.Tier)
	}
}

func TestBecomeAffiliateRetriesCodeCollision(t *testing.T) {
	env := setupServiceTest(t)
	other := env.createIdentity(t, "other@example.com", "")
	env.createProfile(t, other.ID, "AGD111111", nil)

	identity := env.createIdentity(t, "buyer@example.com", "")
	env.createInvestment(t, identity.ID, catalog.PlanStarter, 1500, constants.InvestmentStatusConfirmed)
	codes := []string{"AGD111111", "AGD222222"}
	env.affiliate.codeGenerator = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	profile, err := env.affiliate.BecomeAffiliate(identity.ID)
	if err != nil {
		t.Fatalf("become affiliate failed: %v", err)
	}
	if profile.AffiliateCode != "AGD222222" {
		t.Fatalf("expected regenerated code, got %s", profile.AffiliateCode)
	}
}

func TestAffiliateEligibilityPreview(t *testing.T) {
	env := setupServiceTest(t)
	identity := env.createIdentity(t, "preview@example.com", "")

	preview, err := env.affiliate.Eligibility(identity.ID)
	if err != nil {
		t.Fatalf("eligibility failed: %v", err)
	}
	if preview.Eligible || preview.Opened || preview.SuggestedTier != constants.TierBronze {
		t.Fatalf("unexpected empty preview: %+v", preview)
	}
	if preview.MinimumAmount.String() != "1500.00" {
		t.Fatalf("expected minimum 1500.00, got %s", preview.MinimumAmount.String())
	}

	env.createInvestment(t, identity.ID, catalog.PlanElite, 10000, constants.InvestmentStatusConfirmed)
	preview, err = env.affiliate.Eligibility(identity.ID)
	if err != nil {
		t.Fatalf("eligibility failed: %v", err)
	}
	if !preview.Eligible || preview.SuggestedTier != constants.TierElite {
		t.Fatalf("expected eligible elite preview, got %+v", preview)
	}
}

func TestAffiliateDashboard(t *testing.T) {
	env := setupServiceTest(t)
	identity := env.createIdentity(t, "dash@example.com", "")

	empty, err := env.affiliate.GetDashboard(identity.ID)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if empty.Opened || empty.ReferralLink != "" {
		t.Fatalf("expected empty dashboard, got %+v", empty)
	}

	profile := env.createProfile(t, identity.ID, "AGD123456", nil)
	for _, key := range []string{"v1", "v2", "v3", "v4"} {
		if _, err := env.attribution.RecordClick(AffiliateClickInput{AffiliateCode: "AGD123456", VisitorKey: key, Destination: "/"}); err != nil {
			t.Fatalf("record click failed: %v", err)
		}
	}
	buyer := env.createIdentity(t, "buyer@example.com", "")
	investment := env.createInvestment(t, buyer.ID, catalog.PlanProfessional, 3000, constants.InvestmentStatusPending)
	affiliateID := profile.ID
	if err := env.db.Model(&models.Investment{}).Where("id = ?", investment.ID).
		Updates(map[string]interface{}{"affiliate_profile_id": affiliateID, "affiliate_code": "AGD123456"}).Error; err != nil {
		t.Fatalf("attach affiliate failed: %v", err)
	}
	if _, err := env.commission.ConfirmSale(t.Context(), investment.ID, AuditActor{}); err != nil {
		t.Fatalf("confirm sale failed: %v", err)
	}

	dashboard, err := env.affiliate.GetDashboard(identity.ID)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if !dashboard.Opened || dashboard.ReferralLink != "https://agd.example.com/r/AGD123456" {
		t.Fatalf("unexpected dashboard: %+v", dashboard)
	}
	if dashboard.Stats.ClickCount != 4 || dashboard.Stats.ConvertedCount != 1 {
		t.Fatalf("unexpected stats: %+v", dashboard.Stats)
	}
	if dashboard.Stats.ConversionRate != 25 {
		t.Fatalf("expected 25%% conversion, got %v", dashboard.Stats.ConversionRate)
	}
	if dashboard.Stats.PendingCommission.String() != "360.00" || dashboard.TotalSales.String() != "3000.00" {
		t.Fatalf("unexpected money stats: pending=%s sales=%s", dashboard.Stats.PendingCommission.String(), dashboard.TotalSales.String())
	}

	rows, total, err := env.affiliate.ListCommissions(identity.ID, 1, 20, "")
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("expected one commission, got total=%d err=%v", total, err)
	}
}

func TestUpdateAffiliateStatus(t *testing.T) {
	env := setupServiceTest(t)
	identity := env.createIdentity(t, "status@example.com", "")
	profile := env.createProfile(t, identity.ID, "AGD123456", nil)

	if _, err := env.affiliate.UpdateProfileStatus(profile.ID, "unknown"); !errors.Is(err, ErrAffiliateStatusInvalid) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	updated, err := env.affiliate.UpdateProfileStatus(profile.ID, constants.AffiliateStatusBlocked)
	if err != nil || updated.Status != constants.AffiliateStatusBlocked {
		t.Fatalf("expected blocked, got %+v err=%v", updated, err)
	}
	if _, err := env.affiliate.UpdateProfileStatus(9999, constants.AffiliateStatusActive); !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	items, total, err := env.affiliate.ListAdminProfiles(repository.AffiliateProfileListFilter{Page: 1, PageSize: 20})
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("expected one admin item, got total=%d err=%v", total, err)
	}
}
