package service

import (
	"context"
	"errors"
	"testing"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"

	"github.com/shopspring/decimal"
)

func TestConfirmSaleAttributedProfessionalPurchase(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "affiliate@example.com", "")
	profile := env.createProfile(t, owner.ID, "AGD123456", nil)
	buyer := env.createIdentity(t, "buyer@example.com", "")

	session := &AttributionSession{VisitorKey: "visitor-1"}
	if _, err := env.attribution.Capture(session, "agd123456", constants.SourceChannelLink, "/plans"); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	checkout, err := env.investment.Create(context.Background(), CreateInvestmentInput{
		IdentityID:  buyer.ID,
		PlanID:      catalog.PlanProfessional,
		Amount:      decimal.NewFromInt(3000),
		Attribution: session,
	})
	if err != nil {
		t.Fatalf("create investment failed: %v", err)
	}
	if checkout.Investment.AffiliateCode != "AGD123456" {
		t.Fatalf("expected attributed code, got %q", checkout.Investment.AffiliateCode)
	}
	if !checkout.ExpectedBonusTokens.Equal(decimal.NewFromInt(3450)) {
		t.Fatalf("expected 3450 bonus tokens preview, got %s", checkout.ExpectedBonusTokens)
	}
	if checkout.Investment.Status != constants.InvestmentStatusPending {
		t.Fatalf("new investment should be pending, got %s", checkout.Investment.Status)
	}

	result, err := env.commission.ConfirmSale(context.Background(), checkout.Investment.ID, AuditActor{AdminID: 1, Username: "finance"})
	if err != nil {
		t.Fatalf("confirm sale failed: %v", err)
	}
	if result.Investment.Status != constants.InvestmentStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", result.Investment.Status)
	}
	if !result.Investment.BonusTokens.Equal(decimal.NewFromInt(3450)) {
		t.Fatalf("expected 3450 bonus tokens, got %s", result.Investment.BonusTokens)
	}
	if len(result.Commissions) != 1 {
		t.Fatalf("expected one commission, got %d", len(result.Commissions))
	}
	commission := result.Commissions[0]
	if commission.AffiliateProfileID != profile.ID || commission.CommissionType != constants.CommissionTypeDirect {
		t.Fatalf("unexpected commission owner: %+v", commission)
	}
	if !commission.Amount.Decimal.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("expected 360 commission, got %s", commission.Amount.String())
	}
	if !commission.Percentage.Decimal.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected 12%% commission, got %s", commission.Percentage.String())
	}
	if commission.Status != constants.CommissionStatusPending {
		t.Fatalf("commission should start pending, got %s", commission.Status)
	}

	reloaded := env.reloadProfile(t, profile.ID)
	if !reloaded.TotalSales.Decimal.Equal(decimal.NewFromInt(3000)) || !reloaded.TotalCommission.Decimal.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("unexpected profile totals: sales=%s commission=%s", reloaded.TotalSales.String(), reloaded.TotalCommission.String())
	}
	if env.publisher.count(constants.EventSaleConfirmed) != 1 {
		t.Fatalf("expected one sale.confirmed event")
	}

	var audits int64
	env.db.Model(&models.AdminAuditLog{}).Where("action = ?", constants.AuditActionSaleConfirm).Count(&audits)
	if audits != 1 {
		t.Fatalf("expected one audit row, got %d", audits)
	}
}

func TestConfirmSaleIsIdempotent(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "affiliate@example.com", "")
	profile := env.createProfile(t, owner.ID, "AGD111111", nil)
	buyer := env.createIdentity(t, "buyer@example.com", "")
	investment := env.createInvestment(t, buyer.ID, catalog.PlanProfessional, 3000, constants.InvestmentStatusPending)
	profileID := profile.ID
	env.db.Model(investment).Updates(map[string]interface{}{"affiliate_profile_id": profileID, "affiliate_code": profile.AffiliateCode})

	if _, err := env.commission.ConfirmSale(context.Background(), investment.ID, AuditActor{}); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	second, err := env.commission.ConfirmSale(context.Background(), investment.ID, AuditActor{})
	if err != nil {
		t.Fatalf("second confirm failed: %v", err)
	}
	if !second.AlreadyConfirmed || len(second.Commissions) != 0 {
		t.Fatalf("second confirm should be a no-op, got %+v", second)
	}
	if total := env.countCommissions(t, investment.ID); total != 1 {
		t.Fatalf("expected exactly one commission, got %d", total)
	}
	reloaded := env.reloadProfile(t, profile.ID)
	if !reloaded.TotalCommission.Decimal.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("totals must not double count, got %s", reloaded.TotalCommission.String())
	}
	if env.publisher.count(constants.EventSaleConfirmed) != 1 {
		t.Fatalf("sale.confirmed should be emitted once")
	}
}

func TestConfirmSalePaysOneLeaderLevel(t *testing.T) {
	env := setupServiceTest(t)
	topIdentity := env.createIdentity(t, "top@example.com", "")
	top := env.createProfile(t, topIdentity.ID, "AGD000001", nil)
	topID := top.ID
	leaderIdentity := env.createIdentity(t, "leader@example.com", "")
	leader := env.createProfile(t, leaderIdentity.ID, "AGD000002", &topID)
	leaderID := leader.ID
	affiliateIdentity := env.createIdentity(t, "affiliate@example.com", "")
	affiliate := env.createProfile(t, affiliateIdentity.ID, "AGD000003", &leaderID)
	buyer := env.createIdentity(t, "buyer@example.com", "")

	investment := env.createInvestment(t, buyer.ID, catalog.PlanProfessional, 3000, constants.InvestmentStatusPending)
	env.db.Model(investment).Updates(map[string]interface{}{"affiliate_profile_id": affiliate.ID, "affiliate_code": affiliate.AffiliateCode})

	result, err := env.commission.ConfirmSale(context.Background(), investment.ID, AuditActor{})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if len(result.Commissions) != 2 {
		t.Fatalf("expected direct and leader commission, got %d", len(result.Commissions))
	}
	if !result.Outcome.LeaderCommission.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected leader commission 90, got %s", result.Outcome.LeaderCommission)
	}
	for _, commission := range result.Commissions {
		if commission.AffiliateProfileID == top.ID {
			t.Fatalf("only one upline level may be paid")
		}
	}
	if reloaded := env.reloadProfile(t, leader.ID); !reloaded.TotalSales.Decimal.IsZero() {
		t.Fatalf("leader commission must not count as leader sales, got %s", reloaded.TotalSales.String())
	}
}

func TestConfirmSaleWithoutAffiliate(t *testing.T) {
	env := setupServiceTest(t)
	buyer := env.createIdentity(t, "buyer@example.com", "")
	investment := env.createInvestment(t, buyer.ID, catalog.PlanStarter, 1500, constants.InvestmentStatusPending)

	result, err := env.commission.ConfirmSale(context.Background(), investment.ID, AuditActor{})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if len(result.Commissions) != 0 {
		t.Fatalf("unattributed sale must not create commissions")
	}
	if !result.Investment.BonusTokens.Equal(decimal.NewFromInt(1650)) {
		t.Fatalf("bonus tokens are always granted, got %s", result.Investment.BonusTokens)
	}
}

func TestConfirmSaleSkipsBlockedAffiliate(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "affiliate@example.com", "")
	profile := env.createProfile(t, owner.ID, "AGD222222", nil)
	env.db.Model(profile).Update("status", constants.AffiliateStatusBlocked)
	buyer := env.createIdentity(t, "buyer@example.com", "")
	investment := env.createInvestment(t, buyer.ID, catalog.PlanProfessional, 3000, constants.InvestmentStatusPending)
	env.db.Model(investment).Update("affiliate_profile_id", profile.ID)

	if _, err := env.commission.ConfirmSale(context.Background(), investment.ID, AuditActor{}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if total := env.countCommissions(t, investment.ID); total != 0 {
		t.Fatalf("blocked affiliate must not earn commission, got %d", total)
	}
}

func TestConfirmSaleRejectsCancelledAndMissing(t *testing.T) {
	env := setupServiceTest(t)
	buyer := env.createIdentity(t, "buyer@example.com", "")
	investment := env.createInvestment(t, buyer.ID, catalog.PlanStarter, 1500, constants.InvestmentStatusPending)

	if _, err := env.commission.CancelSale(investment.ID, "customer request", AuditActor{}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err := env.commission.ConfirmSale(context.Background(), investment.ID, AuditActor{})
	if !errors.Is(err, ErrInvestmentStatusInvalid) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for cancelled sale, got %v", err)
	}
	if _, err := env.commission.CancelSale(investment.ID, "again", AuditActor{}); !errors.Is(err, ErrInvestmentStatusInvalid) {
		t.Fatalf("cancelling twice should conflict, got %v", err)
	}
	if _, err := env.commission.ConfirmSale(context.Background(), 9999, AuditActor{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmSaleUnknownPlanLeavesSalePending(t *testing.T) {
	env := setupServiceTest(t)
	buyer := env.createIdentity(t, "buyer@example.com", "")
	investment := env.createInvestment(t, buyer.ID, "legacy", 3000, constants.InvestmentStatusPending)

	_, err := env.commission.ConfirmSale(context.Background(), investment.ID, AuditActor{})
	if !errors.Is(err, ErrPlanNotFound) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected plan validation error, got %v", err)
	}
	reloaded, _ := env.investmentRepo.GetByID(investment.ID)
	if reloaded.Status != constants.InvestmentStatusPending {
		t.Fatalf("failed confirmation must leave the sale pending, got %s", reloaded.Status)
	}
}

func TestCommissionPayAndCancel(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createIdentity(t, "affiliate@example.com", "")
	profile := env.createProfile(t, owner.ID, "AGD333333", nil)
	buyer := env.createIdentity(t, "buyer@example.com", "")

	first := env.createInvestment(t, buyer.ID, catalog.PlanProfessional, 3000, constants.InvestmentStatusPending)
	second := env.createInvestment(t, buyer.ID, catalog.PlanStarter, 1500, constants.InvestmentStatusPending)
	for _, inv := range []*models.Investment{first, second} {
		env.db.Model(inv).Update("affiliate_profile_id", profile.ID)
		if _, err := env.commission.ConfirmSale(context.Background(), inv.ID, AuditActor{}); err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
	}
	commissions, err := env.commissionRepo.ListByInvestment(first.ID)
	if err != nil || len(commissions) != 1 {
		t.Fatalf("expected commission for first sale: %v", err)
	}
	paid, err := env.commission.MarkCommissionPaid(commissions[0].ID, AuditActor{AdminID: 1})
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.CommissionStatusPaid || paid.PaidAt == nil {
		t.Fatalf("commission should be paid, got %+v", paid)
	}
	if _, err := env.commission.CancelCommission(commissions[0].ID, "late", AuditActor{}); !errors.Is(err, ErrCommissionStatusInvalid) {
		t.Fatalf("paid commission cannot be cancelled, got %v", err)
	}

	secondCommissions, _ := env.commissionRepo.ListByInvestment(second.ID)
	cancelled, err := env.commission.CancelCommission(secondCommissions[0].ID, "chargeback", AuditActor{})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.CommissionStatusCancelled || cancelled.CancelReason != "chargeback" {
		t.Fatalf("unexpected cancelled commission: %+v", cancelled)
	}
	reloaded := env.reloadProfile(t, profile.ID)
	if !reloaded.TotalCommission.Decimal.Equal(decimal.NewFromInt(360)) {
		t.Fatalf("cancel should roll back 150 of 510, got %s", reloaded.TotalCommission.String())
	}
	if _, err := env.commission.MarkCommissionPaid(424242, AuditActor{}); !errors.Is(err, ErrCommissionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelSaleCancelsPendingCommissions(t *testing.T) {
	env := setupServiceTest(t)
	buyer := env.createIdentity(t, "buyer@example.com", "")
	investment := env.createInvestment(t, buyer.ID, catalog.PlanStarter, 1500, constants.InvestmentStatusPending)

	cancelled, err := env.commission.CancelSale(investment.ID, "pix expired", AuditActor{})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.InvestmentStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled investment: %+v", cancelled)
	}
}
