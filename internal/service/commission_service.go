package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/events"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/queue"
	"github.com/agd-funnel/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	auditTargetInvestment = "investment"
	auditTargetCommission = "commission"
	auditTargetAffiliate  = "affiliate_profile"
	auditTargetSetting    = "setting"
)

// CommissionService 销售确认与佣金业务服务
type CommissionService struct {
	investmentRepo repository.InvestmentRepository
	affiliateRepo  repository.AffiliateRepository
	commissionRepo repository.CommissionRepository
	auditRepo      repository.AdminAuditLogRepository
	settingService *SettingService
	defaultSetting CommissionSetting
	queueClient    *queue.Client
	publisher      events.Publisher
	now            func() time.Time
}

// NewCommissionService 创建佣金服务
func NewCommissionService(
	investmentRepo repository.InvestmentRepository,
	affiliateRepo repository.AffiliateRepository,
	commissionRepo repository.CommissionRepository,
	auditRepo repository.AdminAuditLogRepository,
	settingService *SettingService,
	defaults CommissionSetting,
	queueClient *queue.Client,
	publisher events.Publisher,
) *CommissionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CommissionService{
		investmentRepo: investmentRepo,
		affiliateRepo:  affiliateRepo,
		commissionRepo: commissionRepo,
		auditRepo:      auditRepo,
		settingService: settingService,
		defaultSetting: NormalizeCommissionSetting(defaults),
		queueClient:    queueClient,
		publisher:      publisher,
		now:            time.Now,
	}
}

// SaleConfirmation 销售确认结果
type SaleConfirmation struct {
	Investment       *models.Investment  `json:"investment"`
	Outcome          SaleOutcome         `json:"outcome"`
	Commissions      []models.Commission `json:"commissions"`
	AlreadyConfirmed bool                `json:"already_confirmed"`
}

// SaleConfirmedEvent 销售确认事件数据
type SaleConfirmedEvent struct {
	InvestmentID  uint   `json:"investment_id"`
	IdentityID    uint   `json:"identity_id"`
	PlanID        string `json:"plan_id"`
	Amount        string `json:"amount"`
	BonusTokens   string `json:"bonus_tokens"`
	AffiliateCode string `json:"affiliate_code"`
	ConfirmedAt   string `json:"confirmed_at"`
}

func (s *CommissionService) setting() CommissionSetting {
	setting, err := s.settingService.GetCommissionSetting(s.defaultSetting)
	if err != nil {
		logger.Warnw("commission_setting_load_failed", "error", err)
		return s.defaultSetting
	}
	return setting
}

// ConfirmSale 确认销售并生成佣金
// 状态变更与佣金写入在同一事务内完成，任一失败销售保持待确认。
// 重复确认同一笔销售不会生成重复佣金。
func (s *CommissionService) ConfirmSale(ctx context.Context, investmentID uint, actor AuditActor) (*SaleConfirmation, error) {
	leaderRate := s.setting().LeaderRate()
	result := &SaleConfirmation{Commissions: []models.Commission{}}

	err := s.investmentRepo.Transaction(func(tx *gorm.DB) error {
		investmentRepo := s.investmentRepo.WithTx(tx)
		affiliateRepo := s.affiliateRepo.WithTx(tx)

		investment, err := investmentRepo.GetByIDForUpdate(investmentID)
		if err != nil {
			return err
		}
		if investment == nil {
			return ErrInvestmentNotFound
		}
		switch investment.Status {
		case constants.InvestmentStatusPending:
		case constants.InvestmentStatusConfirmed:
			result.AlreadyConfirmed = true
		default:
			return ErrInvestmentStatusInvalid
		}

		plan, err := catalog.FindPlan(investment.PlanID)
		if err != nil {
			return ErrPlanNotFound
		}

		profile, leader, err := s.loadCommissionProfiles(affiliateRepo, investment)
		if err != nil {
			return err
		}
		outcome := ComputeSaleOutcome(plan, investment.Amount.Decimal, profile != nil, leader != nil, leaderRate)
		result.Outcome = outcome

		now := s.now()
		if !result.AlreadyConfirmed {
			ok, err := investmentRepo.TransitionFromPending(investment.ID, constants.InvestmentStatusConfirmed, map[string]interface{}{
				"confirmed_at":  now,
				"bonus_tokens":  outcome.BonusTokens,
				"bonus_percent": models.NewMoneyFromDecimal(plan.BonusPercent),
				"updated_at":    now,
			})
			if err != nil {
				return err
			}
			if !ok {
				return ErrInvestmentStatusInvalid
			}
		}

		if profile != nil {
			created, err := s.ensureCommission(tx, investment, profile.ID, constants.CommissionTypeDirect,
				outcome.DirectPercent, outcome.DirectCommission, investment.Amount.Decimal, now)
			if err != nil {
				return err
			}
			if created != nil {
				result.Commissions = append(result.Commissions, *created)
			}
		}
		if leader != nil && outcome.LeaderCommission.GreaterThan(decimal.Zero) {
			created, err := s.ensureCommission(tx, investment, leader.ID, constants.CommissionTypeLeader,
				outcome.LeaderPercent, outcome.LeaderCommission, decimal.Zero, now)
			if err != nil {
				return err
			}
			if created != nil {
				result.Commissions = append(result.Commissions, *created)
			}
		}

		if !result.AlreadyConfirmed {
			detail := models.JSON{
				"amount":       investment.Amount.String(),
				"plan_id":      investment.PlanID,
				"bonus_tokens": outcome.BonusTokens.String(),
				"commissions":  len(result.Commissions),
			}
			if err := writeAudit(s.auditTx(tx), actor, constants.AuditActionSaleConfirm, auditTargetInvestment, investment.ID, detail); err != nil {
				return err
			}
		}

		refreshed, err := investmentRepo.GetByID(investment.ID)
		if err != nil {
			return err
		}
		result.Investment = refreshed
		return nil
	})
	if err != nil {
		if isCategorized(err) {
			return nil, err
		}
		return nil, upstream("confirm sale", err)
	}

	if !result.AlreadyConfirmed {
		logger.Infow("sale_confirmed",
			"investment_id", investmentID,
			"bonus_tokens", result.Outcome.BonusTokens.String(),
			"commission_count", len(result.Commissions),
			"operator_admin_id", actor.AdminID,
		)
		s.emitSaleConfirmed(ctx, result.Investment)
	}
	return result, nil
}

// loadCommissionProfiles 归因推广用户及其上级，非活跃档案不参与分佣
func (s *CommissionService) loadCommissionProfiles(repo repository.AffiliateRepository, investment *models.Investment) (*models.AffiliateProfile, *models.AffiliateProfile, error) {
	if investment.AffiliateProfileID == nil || *investment.AffiliateProfileID == 0 {
		return nil, nil, nil
	}
	profile, err := repo.GetProfileByIDForUpdate(*investment.AffiliateProfileID)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil || profile.Status != constants.AffiliateStatusActive {
		logger.Warnw("sale_confirm_affiliate_inactive",
			"investment_id", investment.ID,
			"affiliate_profile_id", *investment.AffiliateProfileID,
		)
		return nil, nil, nil
	}
	if profile.LeaderProfileID == nil || *profile.LeaderProfileID == 0 || *profile.LeaderProfileID == profile.ID {
		return profile, nil, nil
	}
	leader, err := repo.GetProfileByIDForUpdate(*profile.LeaderProfileID)
	if err != nil {
		return nil, nil, err
	}
	if leader == nil || leader.Status != constants.AffiliateStatusActive || leader.IdentityID == investment.IdentityID {
		return profile, nil, nil
	}
	return profile, leader, nil
}

// ensureCommission 按（投资, 推广用户, 类型）先查后插，唯一键冲突视为已存在
func (s *CommissionService) ensureCommission(
	tx *gorm.DB,
	investment *models.Investment,
	profileID uint,
	commissionType string,
	percent, amount, saleAmount decimal.Decimal,
	now time.Time,
) (*models.Commission, error) {
	commissionRepo := s.commissionRepo.WithTx(tx)
	existing, err := commissionRepo.GetByInvestmentAndProfile(investment.ID, profileID, commissionType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	commission := &models.Commission{
		AffiliateProfileID: profileID,
		InvestmentID:       investment.ID,
		CommissionType:     commissionType,
		BaseAmount:         investment.Amount,
		Percentage:         models.NewMoneyFromDecimal(percent),
		Amount:             models.NewMoneyFromDecimal(amount),
		Status:             constants.CommissionStatusPending,
		GeneratedAt:        now,
	}
	err = tx.Transaction(func(inner *gorm.DB) error {
		if err := s.commissionRepo.WithTx(inner).Create(commission); err != nil {
			return err
		}
		return s.affiliateRepo.WithTx(inner).AddSaleTotals(profileID, saleAmount, amount)
	})
	if err != nil {
		if isUniqueViolation(err) {
			logger.Infow("commission_duplicate_skipped",
				"investment_id", investment.ID,
				"affiliate_profile_id", profileID,
				"commission_type", commissionType,
			)
			return nil, nil
		}
		return nil, err
	}
	return commission, nil
}

func (s *CommissionService) emitSaleConfirmed(ctx context.Context, investment *models.Investment) {
	if investment == nil {
		return
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueSaleConfirmed(queue.SaleConfirmedPayload{InvestmentID: investment.ID})
		if err == nil {
			return
		}
		logger.Warnw("sale_confirmed_enqueue_failed", "investment_id", investment.ID, "error", err)
	}
	if err := s.PublishSaleConfirmed(ctx, investment); err != nil {
		logger.Warnw("sale_confirmed_publish_failed", "investment_id", investment.ID, "error", err)
	}
}

// PublishSaleConfirmed 投递销售确认事件
func (s *CommissionService) PublishSaleConfirmed(ctx context.Context, investment *models.Investment) error {
	if investment == nil {
		return nil
	}
	confirmedAt := s.now()
	if investment.ConfirmedAt != nil {
		confirmedAt = *investment.ConfirmedAt
	}
	data := SaleConfirmedEvent{
		InvestmentID:  investment.ID,
		IdentityID:    investment.IdentityID,
		PlanID:        investment.PlanID,
		Amount:        investment.Amount.String(),
		BonusTokens:   investment.BonusTokens.StringFixed(4),
		AffiliateCode: investment.AffiliateCode,
		ConfirmedAt:   confirmedAt.UTC().Format(time.RFC3339),
	}
	key := investmentPartitionKey(investment.ID)
	body, err := events.Encode(constants.EventSaleConfirmed, key, confirmedAt, data)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, constants.EventSaleConfirmed, body, key)
}

// CancelSale 取消待确认销售
func (s *CommissionService) CancelSale(investmentID uint, reason string, actor AuditActor) (*models.Investment, error) {
	var cancelled *models.Investment
	err := s.investmentRepo.Transaction(func(tx *gorm.DB) error {
		investmentRepo := s.investmentRepo.WithTx(tx)
		investment, err := investmentRepo.GetByIDForUpdate(investmentID)
		if err != nil {
			return err
		}
		if investment == nil {
			return ErrInvestmentNotFound
		}
		now := s.now()
		ok, err := investmentRepo.TransitionFromPending(investment.ID, constants.InvestmentStatusCancelled, map[string]interface{}{
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvestmentStatusInvalid
		}
		if _, err := s.commissionRepo.WithTx(tx).CancelPendingByInvestment(investment.ID, reason, now); err != nil {
			return err
		}
		detail := models.JSON{"reason": strings.TrimSpace(reason)}
		if err := writeAudit(s.auditTx(tx), actor, constants.AuditActionSaleCancel, auditTargetInvestment, investment.ID, detail); err != nil {
			return err
		}
		cancelled, err = investmentRepo.GetByID(investment.ID)
		return err
	})
	if err != nil {
		if isCategorized(err) {
			return nil, err
		}
		return nil, upstream("cancel sale", err)
	}
	logger.Infow("sale_cancelled", "investment_id", investmentID, "operator_admin_id", actor.AdminID)
	return cancelled, nil
}

// MarkCommissionPaid 标记佣金已支付（仅待处理佣金）
func (s *CommissionService) MarkCommissionPaid(commissionID uint, actor AuditActor) (*models.Commission, error) {
	return s.transitionCommission(commissionID, constants.CommissionStatusPaid, "", actor)
}

// CancelCommission 取消待处理佣金并回退推广用户累计佣金
func (s *CommissionService) CancelCommission(commissionID uint, reason string, actor AuditActor) (*models.Commission, error) {
	return s.transitionCommission(commissionID, constants.CommissionStatusCancelled, reason, actor)
}

func (s *CommissionService) transitionCommission(commissionID uint, status, reason string, actor AuditActor) (*models.Commission, error) {
	var updated *models.Commission
	err := s.investmentRepo.Transaction(func(tx *gorm.DB) error {
		commissionRepo := s.commissionRepo.WithTx(tx)
		commission, err := commissionRepo.GetByIDForUpdate(commissionID)
		if err != nil {
			return err
		}
		if commission == nil {
			return ErrCommissionNotFound
		}
		now := s.now()
		updates := map[string]interface{}{"updated_at": now}
		action := constants.AuditActionCommissionPay
		if status == constants.CommissionStatusPaid {
			updates["paid_at"] = now
		} else {
			updates["cancelled_at"] = now
			updates["cancel_reason"] = strings.TrimSpace(reason)
			action = constants.AuditActionCommissionCancel
		}
		ok, err := commissionRepo.TransitionFromPending(commission.ID, status, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCommissionStatusInvalid
		}
		if status == constants.CommissionStatusCancelled {
			if err := s.affiliateRepo.WithTx(tx).AddSaleTotals(commission.AffiliateProfileID, decimal.Zero, commission.Amount.Decimal.Neg()); err != nil {
				return err
			}
		}
		detail := models.JSON{
			"amount":          commission.Amount.String(),
			"commission_type": commission.CommissionType,
			"investment_id":   commission.InvestmentID,
		}
		if reason = strings.TrimSpace(reason); reason != "" {
			detail["reason"] = reason
		}
		if err := writeAudit(s.auditTx(tx), actor, action, auditTargetCommission, commission.ID, detail); err != nil {
			return err
		}
		updated, err = commissionRepo.GetByID(commission.ID)
		return err
	})
	if err != nil {
		if isCategorized(err) {
			return nil, err
		}
		return nil, upstream("update commission", err)
	}
	logger.Infow("commission_status_updated",
		"commission_id", commissionID,
		"status", status,
		"operator_admin_id", actor.AdminID,
	)
	return updated, nil
}

// ListCommissions 后台查询佣金
func (s *CommissionService) ListCommissions(filter repository.CommissionListFilter) ([]models.Commission, int64, error) {
	return s.commissionRepo.List(filter)
}

// ListInvestments 后台查询销售
func (s *CommissionService) ListInvestments(filter repository.InvestmentListFilter) ([]models.Investment, int64, error) {
	return s.investmentRepo.List(filter)
}

func (s *CommissionService) auditTx(tx *gorm.DB) repository.AdminAuditLogRepository {
	if s.auditRepo == nil {
		return nil
	}
	return s.auditRepo.WithTx(tx)
}

func investmentPartitionKey(id uint) string {
	return fmt.Sprintf("investment:%d", id)
}

// isCategorized 判断是否为已分类的业务错误
func isCategorized(err error) bool {
	var target *categorized
	return errors.As(err, &target)
}
