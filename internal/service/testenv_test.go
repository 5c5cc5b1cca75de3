package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type mockSettingRepo struct {
	store map[string]models.JSON
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{store: map[string]models.JSON{}}
}

func (m *mockSettingRepo) GetByKey(key string) (*models.Setting, error) {
	value, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) Upsert(key string, value models.JSON) (*models.Setting, error) {
	m.store[key] = value
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

type publishedEvent struct {
	eventType string
	key       string
	body      []byte
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, key: partitionKey, body: payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, event := range p.events {
		if event.eventType == eventType {
			total++
		}
	}
	return total
}

type serviceTestEnv struct {
	db             *gorm.DB
	cfg            *config.Config
	now            time.Time
	affiliateRepo  *repository.GormAffiliateRepository
	identityRepo   *repository.GormIdentityRepository
	investmentRepo *repository.GormInvestmentRepository
	commissionRepo *repository.GormCommissionRepository
	auditRepo      *repository.GormAdminAuditLogRepository
	settings       *SettingService
	defaults       CommissionSetting
	publisher      *recordingPublisher
	attribution    *AttributionService
	affiliate      *AffiliateService
	commission     *CommissionService
	investment     *InvestmentService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := config.Defaults()
	env := &serviceTestEnv{
		db:             db,
		cfg:            cfg,
		now:            time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		affiliateRepo:  repository.NewAffiliateRepository(db),
		identityRepo:   repository.NewIdentityRepository(db),
		investmentRepo: repository.NewInvestmentRepository(db),
		commissionRepo: repository.NewCommissionRepository(db),
		auditRepo:      repository.NewAdminAuditLogRepository(db),
		settings:       NewSettingService(repository.NewSettingRepository(db)),
		defaults:       CommissionDefaultSetting(cfg.Commission, cfg.Attribution),
		publisher:      &recordingPublisher{},
	}
	clock := func() time.Time { return env.now }

	env.attribution = NewAttributionService(env.affiliateRepo, env.settings, env.defaults)
	env.attribution.now = clock
	env.affiliate = NewAffiliateService(env.affiliateRepo, env.identityRepo, env.investmentRepo, env.commissionRepo, "https://agd.example.com/")
	env.affiliate.now = clock
	env.commission = NewCommissionService(env.investmentRepo, env.affiliateRepo, env.commissionRepo, env.auditRepo, env.settings, env.defaults, nil, env.publisher)
	env.commission.now = clock
	env.investment = NewInvestmentService(env.investmentRepo, env.identityRepo, env.affiliateRepo, env.attribution, env.commission, nil, nil, env.settings, env.defaults)
	env.investment.now = clock
	return env
}

func (env *serviceTestEnv) createIdentity(t *testing.T, email, referredBy string) *models.Identity {
	t.Helper()
	identity := &models.Identity{
		Email:          email,
		PasswordHash:   "hash",
		Locale:         constants.LocalePtBR,
		ReferredByCode: referredBy,
		Status:         constants.IdentityStatusActive,
	}
	if err := env.db.Create(identity).Error; err != nil {
		t.Fatalf("create identity failed: %v", err)
	}
	return identity
}

func (env *serviceTestEnv) createProfile(t *testing.T, identityID uint, code string, leaderID *uint) *models.AffiliateProfile {
	t.Helper()
	profile := &models.AffiliateProfile{
		IdentityID:      identityID,
		AffiliateCode:   code,
		Tier:            constants.TierGold,
		CommissionRate:  models.NewMoneyFromInt(10),
		LeaderProfileID: leaderID,
		Status:          constants.AffiliateStatusActive,
	}
	if err := env.db.Create(profile).Error; err != nil {
		t.Fatalf("create affiliate profile failed: %v", err)
	}
	return profile
}

func (env *serviceTestEnv) createInvestment(t *testing.T, identityID uint, planID string, amount int64, status string) *models.Investment {
	t.Helper()
	investment := &models.Investment{
		IdentityID:   identityID,
		PlanID:       planID,
		Amount:       models.NewMoneyFromInt(amount),
		BonusPercent: models.NewMoneyFromInt(15),
		BonusTokens:  decimal.Zero,
		Status:       status,
		PurchaseDate: env.now,
		UnlockDate:   env.now.AddDate(0, 0, 180),
	}
	if err := env.db.Create(investment).Error; err != nil {
		t.Fatalf("create investment failed: %v", err)
	}
	return investment
}

func (env *serviceTestEnv) reloadProfile(t *testing.T, id uint) *models.AffiliateProfile {
	t.Helper()
	profile, err := env.affiliateRepo.GetProfileByID(id)
	if err != nil || profile == nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	return profile
}

func (env *serviceTestEnv) countCommissions(t *testing.T, investmentID uint) int64 {
	t.Helper()
	var total int64
	if err := env.db.Model(&models.Commission{}).Where("investment_id = ?", investmentID).Count(&total).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	return total
}
