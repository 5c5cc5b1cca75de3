package service

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	affiliateCodePrefix   = "AGD"
	affiliateCodeDigits   = 6
	affiliateCodeMaxRetry = 8
)

var affiliateCodePattern = regexp.MustCompile(`^AGD[0-9]{6}$`)

// AffiliateService 推广用户业务服务
type AffiliateService struct {
	repo           repository.AffiliateRepository
	identityRepo   repository.IdentityRepository
	investmentRepo repository.InvestmentRepository
	commissionRepo repository.CommissionRepository
	publicBaseURL  string
	codeGenerator  func() (string, error)
	now            func() time.Time
}

// NewAffiliateService 创建推广用户服务
func NewAffiliateService(
	repo repository.AffiliateRepository,
	identityRepo repository.IdentityRepository,
	investmentRepo repository.InvestmentRepository,
	commissionRepo repository.CommissionRepository,
	publicBaseURL string,
) *AffiliateService {
	return &AffiliateService{
		repo:           repo,
		identityRepo:   identityRepo,
		investmentRepo: investmentRepo,
		commissionRepo: commissionRepo,
		publicBaseURL:  strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		codeGenerator:  generateAffiliateCode,
		now:            time.Now,
	}
}

// AffiliateEligibility 开通推广资格预览
type AffiliateEligibility struct {
	Eligible       bool         `json:"eligible"`
	Opened         bool         `json:"opened"`
	MinimumAmount  models.Money `json:"minimum_amount"`
	SuggestedTier  string       `json:"suggested_tier"`
	CommissionRate models.Money `json:"commission_rate"`
}

// AffiliateStats 推广统计数据
type AffiliateStats struct {
	ClickCount          int64        `json:"click_count"`
	ConvertedCount      int64        `json:"converted_count"`
	ConversionRate      float64      `json:"conversion_rate"`
	PendingCommission   models.Money `json:"pending_commission"`
	PaidCommission      models.Money `json:"paid_commission"`
	CancelledCommission models.Money `json:"cancelled_commission"`
}

// AffiliateDashboard 推广用户中心数据
type AffiliateDashboard struct {
	Opened          bool           `json:"opened"`
	AffiliateCode   string         `json:"affiliate_code"`
	Tier            string         `json:"tier"`
	CommissionRate  models.Money   `json:"commission_rate"`
	ReferralLink    string         `json:"referral_link"`
	TotalSales      models.Money   `json:"total_sales"`
	TotalCommission models.Money   `json:"total_commission"`
	Stats           AffiliateStats `json:"stats"`
}

// AffiliateAdminItem 后台推广用户列表项
type AffiliateAdminItem struct {
	Profile models.AffiliateProfile `json:"profile"`
	Stats   AffiliateStats          `json:"stats"`
}

// Eligibility 预览身份的开通资格与建议等级
func (s *AffiliateService) Eligibility(identityID uint) (AffiliateEligibility, error) {
	result := AffiliateEligibility{
		MinimumAmount:  models.NewMoneyFromDecimal(catalog.MinimumEligibleAmount()),
		CommissionRate: models.NewMoneyFromDecimal(decimal.Zero),
	}
	existing, err := s.repo.GetProfileByIdentityID(identityID)
	if err != nil {
		return result, upstream("load affiliate profile", err)
	}
	investments, err := s.investmentRepo.ListByIdentity(identityID)
	if err != nil {
		return result, upstream("list investments", err)
	}
	tier := SuggestedTier(confirmedOnly(investments))
	result.Opened = existing != nil
	result.Eligible = IsEligibleForAffiliate(investments)
	result.SuggestedTier = tier.Tier
	result.CommissionRate = models.NewMoneyFromDecimal(tier.CommissionRate)
	return result, nil
}

// BecomeAffiliate 为符合条件的身份开通推广
// 等级与比例在开通时按已确认投资的最大金额确定，之后不自动重算
func (s *AffiliateService) BecomeAffiliate(identityID uint) (*models.AffiliateProfile, error) {
	identity, err := s.identityRepo.GetByID(identityID)
	if err != nil {
		return nil, upstream("load identity", err)
	}
	if identity == nil {
		return nil, ErrIdentityNotFound
	}
	if identity.Status == constants.IdentityStatusDisabled {
		return nil, ErrIdentityDisabled
	}

	existing, err := s.repo.GetProfileByIdentityID(identityID)
	if err != nil {
		return nil, upstream("load affiliate profile", err)
	}
	if existing != nil {
		return nil, ErrAffiliateAlreadyExists
	}

	investments, err := s.investmentRepo.ListByIdentity(identityID)
	if err != nil {
		return nil, upstream("list investments", err)
	}
	if !IsEligibleForAffiliate(investments) {
		return nil, fmt.Errorf("%w: minimum %s", ErrAffiliateNotEligible, catalog.MinimumEligibleAmount().StringFixed(2))
	}
	tier := SuggestedTier(confirmedOnly(investments))
	leaderID, err := s.resolveLeader(identity)
	if err != nil {
		return nil, err
	}

	for i := 0; i < affiliateCodeMaxRetry; i++ {
		code, genErr := s.codeGenerator()
		if genErr != nil {
			return nil, genErr
		}
		profile := &models.AffiliateProfile{
			IdentityID:      identityID,
			AffiliateCode:   code,
			Tier:            tier.Tier,
			CommissionRate:  models.NewMoneyFromDecimal(tier.CommissionRate),
			LeaderProfileID: leaderID,
			TotalSales:      models.NewMoneyFromDecimal(decimal.Zero),
			TotalCommission: models.NewMoneyFromDecimal(decimal.Zero),
			Status:          constants.AffiliateStatusActive,
		}
		if err := s.repo.CreateProfile(profile); err != nil {
			if !isUniqueViolation(err) {
				return nil, upstream("create affiliate profile", err)
			}
			// 身份唯一键冲突说明并发开通已成功，推广码冲突则重新生成
			raced, lookupErr := s.repo.GetProfileByIdentityID(identityID)
			if lookupErr != nil {
				return nil, upstream("load affiliate profile", lookupErr)
			}
			if raced != nil {
				return nil, ErrAffiliateAlreadyExists
			}
			continue
		}
		logger.Infow("affiliate_opened",
			"identity_id", identityID,
			"affiliate_code", profile.AffiliateCode,
			"tier", profile.Tier,
			"leader_profile_id", leaderID,
		)
		created, err := s.repo.GetProfileByID(profile.ID)
		if err != nil {
			return nil, upstream("load affiliate profile", err)
		}
		if created != nil {
			return created, nil
		}
		return profile, nil
	}
	return nil, ErrAffiliateCodeExhausted
}

// resolveLeader 注册时的归因推广码即上级，自身或非活跃档案不作为上级
func (s *AffiliateService) resolveLeader(identity *models.Identity) (*uint, error) {
	code := repository.NormalizeAffiliateCode(identity.ReferredByCode)
	if code == "" {
		return nil, nil
	}
	leader, err := s.repo.GetProfileByCode(code)
	if err != nil {
		return nil, upstream("load leader profile", err)
	}
	if leader == nil || leader.Status != constants.AffiliateStatusActive || leader.IdentityID == identity.ID {
		return nil, nil
	}
	id := leader.ID
	return &id, nil
}

// GetDashboard 推广用户中心数据，未开通时返回空面板
func (s *AffiliateService) GetDashboard(identityID uint) (AffiliateDashboard, error) {
	dashboard := AffiliateDashboard{
		CommissionRate:  models.NewMoneyFromDecimal(decimal.Zero),
		TotalSales:      models.NewMoneyFromDecimal(decimal.Zero),
		TotalCommission: models.NewMoneyFromDecimal(decimal.Zero),
		Stats:           emptyAffiliateStats(),
	}
	profile, err := s.repo.GetProfileByIdentityID(identityID)
	if err != nil {
		return dashboard, upstream("load affiliate profile", err)
	}
	if profile == nil {
		return dashboard, nil
	}
	stats, err := s.buildProfileStats(profile.ID)
	if err != nil {
		return dashboard, err
	}
	dashboard.Opened = true
	dashboard.AffiliateCode = profile.AffiliateCode
	dashboard.Tier = profile.Tier
	dashboard.CommissionRate = profile.CommissionRate
	dashboard.ReferralLink = s.ReferralLink(profile.AffiliateCode)
	dashboard.TotalSales = profile.TotalSales
	dashboard.TotalCommission = profile.TotalCommission
	dashboard.Stats = stats
	return dashboard, nil
}

// ReferralLink 生成推广链接
func (s *AffiliateService) ReferralLink(code string) string {
	return s.publicBaseURL + "/r/" + repository.NormalizeAffiliateCode(code)
}

// ListCommissions 查询推广用户自己的佣金
func (s *AffiliateService) ListCommissions(identityID uint, page, pageSize int, status string) ([]models.Commission, int64, error) {
	profile, err := s.repo.GetProfileByIdentityID(identityID)
	if err != nil {
		return nil, 0, upstream("load affiliate profile", err)
	}
	if profile == nil {
		return []models.Commission{}, 0, nil
	}
	return s.commissionRepo.List(repository.CommissionListFilter{
		Page:               page,
		PageSize:           pageSize,
		AffiliateProfileID: profile.ID,
		Status:             strings.TrimSpace(status),
	})
}

// ListAdminProfiles 后台查询推广用户列表
func (s *AffiliateService) ListAdminProfiles(filter repository.AffiliateProfileListFilter) ([]AffiliateAdminItem, int64, error) {
	rows, total, err := s.repo.ListProfiles(filter)
	if err != nil {
		return nil, 0, err
	}
	profileIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		profileIDs = append(profileIDs, row.ID)
	}
	statsMap, err := s.repo.GetProfileStatsBatch(profileIDs)
	if err != nil {
		return nil, 0, err
	}
	result := make([]AffiliateAdminItem, 0, len(rows))
	for _, row := range rows {
		agg := statsMap[row.ID]
		result = append(result, AffiliateAdminItem{
			Profile: row,
			Stats: AffiliateStats{
				ClickCount:          agg.ClickCount,
				ConvertedCount:      agg.ConvertedCount,
				ConversionRate:      calcAffiliateConversion(agg.ConvertedCount, agg.ClickCount),
				PendingCommission:   models.NewMoneyFromDecimal(agg.PendingCommission),
				PaidCommission:      models.NewMoneyFromDecimal(agg.PaidCommission),
				CancelledCommission: models.NewMoneyFromDecimal(agg.CancelledCommission),
			},
		})
	}
	return result, total, nil
}

// UpdateProfileStatus 后台更新推广用户状态
func (s *AffiliateService) UpdateProfileStatus(profileID uint, rawStatus string) (*models.AffiliateProfile, error) {
	nextStatus := strings.TrimSpace(rawStatus)
	switch nextStatus {
	case constants.AffiliateStatusActive, constants.AffiliateStatusPending, constants.AffiliateStatusBlocked:
	default:
		return nil, ErrAffiliateStatusInvalid
	}
	profile, err := s.repo.GetProfileByID(profileID)
	if err != nil {
		return nil, upstream("load affiliate profile", err)
	}
	if profile == nil {
		return nil, ErrAffiliateNotFound
	}
	if profile.Status == nextStatus {
		return profile, nil
	}
	if err := s.repo.UpdateProfileStatus(profileID, nextStatus, s.now()); err != nil {
		return nil, upstream("update affiliate status", err)
	}
	return s.repo.GetProfileByID(profileID)
}

func (s *AffiliateService) buildProfileStats(profileID uint) (AffiliateStats, error) {
	stats := emptyAffiliateStats()
	batch, err := s.repo.GetProfileStatsBatch([]uint{profileID})
	if err != nil {
		return stats, upstream("load affiliate stats", err)
	}
	agg := batch[profileID]
	stats.ClickCount = agg.ClickCount
	stats.ConvertedCount = agg.ConvertedCount
	stats.ConversionRate = calcAffiliateConversion(agg.ConvertedCount, agg.ClickCount)
	stats.PendingCommission = models.NewMoneyFromDecimal(agg.PendingCommission)
	stats.PaidCommission = models.NewMoneyFromDecimal(agg.PaidCommission)
	stats.CancelledCommission = models.NewMoneyFromDecimal(agg.CancelledCommission)
	return stats, nil
}

func emptyAffiliateStats() AffiliateStats {
	zero := models.NewMoneyFromDecimal(decimal.Zero)
	return AffiliateStats{
		PendingCommission:   zero,
		PaidCommission:      zero,
		CancelledCommission: zero,
	}
}

func calcAffiliateConversion(converted, clicks int64) float64 {
	if clicks <= 0 || converted <= 0 {
		return 0
	}
	value := (float64(converted) / float64(clicks)) * 100
	return math.Round(value*100) / 100
}

// IsValidAffiliateCode 校验推广码格式
func IsValidAffiliateCode(code string) bool {
	return affiliateCodePattern.MatchString(repository.NormalizeAffiliateCode(code))
}

func generateAffiliateCode() (string, error) {
	var builder strings.Builder
	builder.Grow(len(affiliateCodePrefix) + affiliateCodeDigits)
	builder.WriteString(affiliateCodePrefix)
	ten := big.NewInt(10)
	for i := 0; i < affiliateCodeDigits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}
	return builder.String(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
