package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/payment/pix"
	"github.com/agd-funnel/internal/queue"
	"github.com/agd-funnel/internal/repository"

	"github.com/shopspring/decimal"
)

const pixWebhookOperator = "pix_webhook"

// PixGateway PIX 收款网关
type PixGateway interface {
	CreateCharge(ctx context.Context, input pix.CreateInput) (*pix.CreateResult, error)
	WebhookSecret() string
}

// InvestmentService 认购（销售）业务服务
type InvestmentService struct {
	investmentRepo repository.InvestmentRepository
	identityRepo   repository.IdentityRepository
	affiliateRepo  repository.AffiliateRepository
	attribution    *AttributionService
	commission     *CommissionService
	gateway        PixGateway
	queueClient    *queue.Client
	settingService *SettingService
	defaultSetting CommissionSetting
	now            func() time.Time
}

// NewInvestmentService 创建认购服务，gateway 为空时不发起 PIX 收款
func NewInvestmentService(
	investmentRepo repository.InvestmentRepository,
	identityRepo repository.IdentityRepository,
	affiliateRepo repository.AffiliateRepository,
	attribution *AttributionService,
	commission *CommissionService,
	gateway PixGateway,
	queueClient *queue.Client,
	settingService *SettingService,
	defaults CommissionSetting,
) *InvestmentService {
	return &InvestmentService{
		investmentRepo: investmentRepo,
		identityRepo:   identityRepo,
		affiliateRepo:  affiliateRepo,
		attribution:    attribution,
		commission:     commission,
		gateway:        gateway,
		queueClient:    queueClient,
		settingService: settingService,
		defaultSetting: NormalizeCommissionSetting(defaults),
		now:            time.Now,
	}
}

// CreateInvestmentInput 创建认购输入
type CreateInvestmentInput struct {
	IdentityID  uint
	PlanID      string
	Amount      decimal.Decimal
	Attribution *AttributionSession
}

// PixCharge PIX 收款信息
type PixCharge struct {
	ChargeID  string    `json:"charge_id"`
	CopyPaste string    `json:"copy_paste"`
	QRCode    string    `json:"qr_code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InvestmentCheckout 下单结果
type InvestmentCheckout struct {
	Investment          *models.Investment `json:"investment"`
	ExpectedBonusTokens decimal.Decimal    `json:"expected_bonus_tokens"`
	Pix                 *PixCharge         `json:"pix,omitempty"`
}

// Create 创建待确认认购，归因取下单时仍有效的推广码（不允许自推广）
func (s *InvestmentService) Create(ctx context.Context, input CreateInvestmentInput) (*InvestmentCheckout, error) {
	identity, err := s.identityRepo.GetByID(input.IdentityID)
	if err != nil {
		return nil, upstream("load identity", err)
	}
	if identity == nil {
		return nil, ErrIdentityNotFound
	}
	plan, err := catalog.FindPlan(input.PlanID)
	if err != nil {
		return nil, ErrPlanNotFound
	}
	amount := input.Amount.Round(2)
	if amount.LessThan(plan.MonthlyValue) {
		return nil, ErrAmountBelowPlan
	}

	now := s.now()
	investment := &models.Investment{
		IdentityID:   identity.ID,
		PlanID:       plan.ID,
		Amount:       models.NewMoneyFromDecimal(amount),
		BonusPercent: models.NewMoneyFromDecimal(plan.BonusPercent),
		BonusTokens:  decimal.Zero,
		Status:       constants.InvestmentStatusPending,
		PurchaseDate: now,
		UnlockDate:   unlockDateFor(plan, now),
	}
	s.applyAttribution(investment, identity, input.Attribution)

	if err := s.investmentRepo.Create(investment); err != nil {
		return nil, upstream("create investment", err)
	}
	logger.Infow("investment_created",
		"investment_id", investment.ID,
		"identity_id", identity.ID,
		"plan_id", plan.ID,
		"amount", amount.StringFixed(2),
		"affiliate_code", investment.AffiliateCode,
	)

	checkout := &InvestmentCheckout{
		Investment:          investment,
		ExpectedBonusTokens: BonusTokensFor(plan, amount),
	}
	if s.gateway == nil {
		return checkout, nil
	}
	charge, err := s.requestCharge(ctx, investment, identity)
	if err != nil {
		return checkout, err
	}
	checkout.Pix = charge
	return checkout, nil
}

func (s *InvestmentService) applyAttribution(investment *models.Investment, identity *models.Identity, session *AttributionSession) {
	if s.attribution == nil || session == nil {
		return
	}
	resolved, err := s.attribution.Resolve(session)
	if err != nil {
		logger.Warnw("investment_attribution_resolve_failed", "identity_id", identity.ID, "error", err)
		return
	}
	if resolved == nil {
		return
	}
	profile, err := s.affiliateRepo.GetProfileByCode(resolved.Code)
	if err != nil || profile == nil || profile.Status != constants.AffiliateStatusActive {
		return
	}
	if profile.IdentityID == identity.ID {
		logger.Debugw("investment_self_referral_ignored", "identity_id", identity.ID, "affiliate_code", profile.AffiliateCode)
		return
	}
	profileID := profile.ID
	investment.AffiliateProfileID = &profileID
	investment.AffiliateCode = profile.AffiliateCode
}

func (s *InvestmentService) requestCharge(ctx context.Context, investment *models.Investment, identity *models.Identity) (*PixCharge, error) {
	result, err := s.gateway.CreateCharge(ctx, pix.CreateInput{
		Reference:   fmt.Sprintf("INV-%d", investment.ID),
		PayerID:     identity.Email,
		Amount:      investment.Amount.Decimal,
		Description: "AGD " + investment.PlanID,
	})
	if err != nil {
		logger.Warnw("investment_pix_charge_failed", "investment_id", investment.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPixUnavailable, err)
	}
	expiresAt := result.ExpiresAt
	if err := s.investmentRepo.UpdatePixCharge(investment.ID, result.ChargeID, result.CopyPaste, result.QRCode, &expiresAt); err != nil {
		return nil, upstream("save pix charge", err)
	}
	investment.PaymentRef = result.ChargeID
	investment.PixCopyPaste = result.CopyPaste
	investment.PixQRCode = result.QRCode
	investment.PixExpiresAt = &expiresAt

	if s.queueClient.Enabled() {
		delay := expiresAt.Sub(s.now())
		if err := s.queueClient.EnqueueInvestmentPixExpire(queue.InvestmentPixExpirePayload{InvestmentID: investment.ID}, delay); err != nil {
			logger.Warnw("investment_pix_expire_enqueue_failed", "investment_id", investment.ID, "error", err)
		}
	}
	return &PixCharge{
		ChargeID:  result.ChargeID,
		CopyPaste: result.CopyPaste,
		QRCode:    result.QRCode,
		ExpiresAt: expiresAt,
	}, nil
}

// HandlePixWebhook 处理 PIX 网关回调：已支付确认销售，过期或失败取消待确认销售
func (s *InvestmentService) HandlePixWebhook(ctx context.Context, body []byte, signature string) error {
	if s.gateway == nil {
		return ErrPixUnavailable
	}
	if err := pix.VerifyWebhook(s.gateway.WebhookSecret(), body, signature); err != nil {
		logger.Warnw("pix_webhook_signature_invalid", "error", err)
		return ErrPixSignatureInvalid
	}
	event, err := pix.ParseWebhook(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	action, ok := pix.ToInvestmentAction(event.Status)
	if !ok {
		logger.Debugw("pix_webhook_status_ignored", "charge_id", event.ChargeID, "status", event.Status)
		return nil
	}
	investment, err := s.investmentRepo.GetByPaymentRef(event.ChargeID)
	if err != nil {
		return upstream("load investment by charge", err)
	}
	if investment == nil {
		return ErrPixChargeNotFound
	}
	actor := AuditActor{Username: pixWebhookOperator, RequestID: event.ChargeID}

	switch action {
	case "confirm":
		paid, err := event.AmountDecimal()
		if err != nil || !paid.Equal(investment.Amount.Decimal.Round(2)) {
			logger.Warnw("pix_webhook_amount_mismatch",
				"investment_id", investment.ID,
				"expected", investment.Amount.String(),
				"paid", event.Amount,
			)
			return ErrPixAmountMismatch
		}
		_, err = s.commission.ConfirmSale(ctx, investment.ID, actor)
		return err
	default:
		if investment.Status != constants.InvestmentStatusPending {
			return nil
		}
		_, err := s.commission.CancelSale(investment.ID, "pix "+event.Status, actor)
		if errors.Is(err, ErrInvestmentStatusInvalid) {
			return nil
		}
		return err
	}
}

// ExpirePixCharge 取消收款码已过期且仍待确认的认购
func (s *InvestmentService) ExpirePixCharge(investmentID uint) (bool, error) {
	investment, err := s.investmentRepo.GetByID(investmentID)
	if err != nil {
		return false, upstream("load investment", err)
	}
	if investment == nil || investment.Status != constants.InvestmentStatusPending {
		return false, nil
	}
	if investment.PixExpiresAt == nil || s.now().Before(*investment.PixExpiresAt) {
		return false, nil
	}
	_, err = s.commission.CancelSale(investment.ID, "pix expired", AuditActor{Username: pixWebhookOperator})
	if errors.Is(err, ErrInvestmentStatusInvalid) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExpireOverdue 批量取消过期 PIX 认购
func (s *InvestmentService) ExpireOverdue(limit int) (int, error) {
	rows, err := s.investmentRepo.ListPendingPixExpired(s.now(), limit)
	if err != nil {
		return 0, upstream("list expired pix", err)
	}
	expired := 0
	for _, row := range rows {
		ok, err := s.ExpirePixCharge(row.ID)
		if err != nil {
			logger.Warnw("investment_pix_expire_failed", "investment_id", row.ID, "error", err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// ListByIdentity 查询买家认购
func (s *InvestmentService) ListByIdentity(identityID uint) ([]models.Investment, error) {
	rows, err := s.investmentRepo.ListByIdentity(identityID)
	if err != nil {
		return nil, upstream("list investments", err)
	}
	return rows, nil
}

// GetForIdentity 获取买家自己的认购
func (s *InvestmentService) GetForIdentity(identityID, investmentID uint) (*models.Investment, error) {
	investment, err := s.investmentRepo.GetByID(investmentID)
	if err != nil {
		return nil, upstream("load investment", err)
	}
	if investment == nil || investment.IdentityID != identityID {
		return nil, ErrInvestmentNotFound
	}
	return investment, nil
}

// QuoteWithdrawal 计算认购可提现金额
func (s *InvestmentService) QuoteWithdrawal(identityID, investmentID uint, early bool) (*WithdrawalQuote, error) {
	investment, err := s.GetForIdentity(identityID, investmentID)
	if err != nil {
		return nil, err
	}
	if investment.Status != constants.InvestmentStatusConfirmed {
		return nil, ErrInvestmentNotConfirmed
	}
	setting, err := s.settingService.GetCommissionSetting(s.defaultSetting)
	if err != nil {
		setting = s.defaultSetting
	}
	quote := ComputeWithdrawalAmount(*investment, early, s.now(), setting.EarlyPenalty())
	return &quote, nil
}

// PlanCatalog 返回可认购套餐
func (s *InvestmentService) PlanCatalog() []catalog.Plan {
	return catalog.Plans()
}
