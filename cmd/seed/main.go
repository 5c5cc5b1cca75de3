package main

import (
	"errors"
	"flag"
	"time"

	"github.com/agd-funnel/internal/authz"
	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/provider"
	"github.com/agd-funnel/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const demoAffiliateCode = "AGD123456"

func main() {
	var password string
	flag.StringVar(&password, "password", "Admin12345", "演示账号密码")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, false, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()

	// 后台账号：超级管理员 + 财务 + 运营
	admins := []struct {
		username string
		isSuper  bool
		roles    []string
	}{
		{username: "admin", isSuper: true},
		{username: "finance", roles: []string{authz.RoleFinance}},
		{username: "operations", roles: []string{authz.RoleOperations}},
	}
	for _, item := range admins {
		admin, created, err := container.AuthService.EnsureAdmin(item.username, password, item.isSuper)
		if err != nil {
			stdLog.Fatalf("Failed to ensure admin %s: %v", item.username, err)
		}
		if len(item.roles) > 0 {
			if err := container.AuthzService.SetAdminRoles(admin.ID, item.roles); err != nil {
				stdLog.Printf("Failed to set roles for %s: %v", item.username, err)
			}
		}
		stdLog.Printf("Admin %s ready (created=%v)", item.username, created)
	}

	// 运行时佣金配置
	defaults := service.CommissionDefaultSetting(cfg.Commission, cfg.Attribution)
	if _, err := container.SettingService.UpdateCommissionSetting(defaults); err != nil {
		stdLog.Printf("Failed to seed commission setting: %v", err)
	}

	// 演示推广用户
	affiliate, err := ensureIdentity(models.DB, "affiliate@agd.example", "Demo Affiliate", password, "")
	if err != nil {
		stdLog.Fatalf("Failed to seed affiliate identity: %v", err)
	}
	plan, err := catalog.FindPlan(catalog.PlanEnterprise)
	if err != nil {
		stdLog.Fatalf("Failed to load plan: %v", err)
	}
	if err := ensureConfirmedInvestment(models.DB, affiliate.ID, plan, plan.MonthlyValue); err != nil {
		stdLog.Fatalf("Failed to seed affiliate investment: %v", err)
	}
	if err := ensureProfile(models.DB, affiliate.ID, plan.MonthlyValue); err != nil {
		stdLog.Fatalf("Failed to seed affiliate profile: %v", err)
	}
	stdLog.Printf("Affiliate %s ready, referral link /r/%s", affiliate.Email, demoAffiliateCode)

	// 演示买家（已归因，待确认认购）
	buyer, err := ensureIdentity(models.DB, "buyer@agd.example", "Demo Buyer", password, demoAffiliateCode)
	if err != nil {
		stdLog.Fatalf("Failed to seed buyer identity: %v", err)
	}
	stdLog.Printf("Buyer %s ready", buyer.Email)
	stdLog.Println("Seed completed")
}

func ensureIdentity(db *gorm.DB, email, name, password, referredBy string) (*models.Identity, error) {
	var existing models.Identity
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return nil, err
	}
	identity := &models.Identity{
		Email:          email,
		PasswordHash:   hash,
		Name:           name,
		Locale:         "pt-BR",
		ReferredByCode: referredBy,
		Status:         constants.IdentityStatusActive,
	}
	if err := db.Create(identity).Error; err != nil {
		return nil, err
	}
	return identity, nil
}

func ensureConfirmedInvestment(db *gorm.DB, identityID uint, plan catalog.Plan, amount decimal.Decimal) error {
	var count int64
	if err := db.Model(&models.Investment{}).
		Where("identity_id = ? AND status = ?", identityID, constants.InvestmentStatusConfirmed).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	now := time.Now()
	confirmedAt := now
	investment := &models.Investment{
		IdentityID:   identityID,
		PlanID:       plan.ID,
		Amount:       models.NewMoneyFromDecimal(amount),
		BonusPercent: models.NewMoneyFromDecimal(plan.BonusPercent),
		BonusTokens:  service.BonusTokensFor(plan, amount),
		Status:       constants.InvestmentStatusConfirmed,
		PurchaseDate: now,
		UnlockDate:   now.AddDate(0, 0, plan.LockPeriodDays),
		ConfirmedAt:  &confirmedAt,
	}
	return db.Create(investment).Error
}

func ensureProfile(db *gorm.DB, identityID uint, amount decimal.Decimal) error {
	var existing models.AffiliateProfile
	err := db.Where("identity_id = ?", identityID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	tier := catalog.DeriveTier(amount)
	profile := &models.AffiliateProfile{
		IdentityID:     identityID,
		AffiliateCode:  demoAffiliateCode,
		Tier:           tier.Tier,
		CommissionRate: models.NewMoneyFromDecimal(tier.CommissionRate),
		Status:         constants.AffiliateStatusActive,
	}
	return db.Create(profile).Error
}
