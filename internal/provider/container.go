package provider

import (
	"time"

	"github.com/agd-funnel/internal/authz"
	"github.com/agd-funnel/internal/cache"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/events"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/payment/pix"
	"github.com/agd-funnel/internal/queue"
	"github.com/agd-funnel/internal/repository"
	"github.com/agd-funnel/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Publisher   events.Publisher
	PixClient   *pix.Client

	// Repositories
	AdminRepo      repository.AdminRepository
	IdentityRepo   repository.IdentityRepository
	AffiliateRepo  repository.AffiliateRepository
	InvestmentRepo repository.InvestmentRepository
	CommissionRepo repository.CommissionRepository
	LeadRepo       repository.LeadRepository
	SettingRepo    repository.SettingRepository
	AuditLogRepo   repository.AdminAuditLogRepository
	DashboardRepo  repository.DashboardRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	IdentityService    *service.IdentityService
	CaptchaService     *service.CaptchaService
	SettingService     *service.SettingService
	AttributionService *service.AttributionService
	AffiliateService   *service.AffiliateService
	CommissionService  *service.CommissionService
	InvestmentService  *service.InvestmentService
	FunnelService      *service.FunnelService
	DashboardService   *service.DashboardService
	AdminAuditService  *service.AdminAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if p, err := events.New(cfg.Events); err != nil {
		logger.Errorw("provider_init_event_publisher_failed", "error", err)
	} else {
		publisher = p
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Publisher:   publisher,
	}
	if cfg.Pix.Enabled {
		client, err := pix.NewClient(pix.Config{
			GatewayURL:     cfg.Pix.GatewayURL,
			APIToken:       cfg.Pix.APIToken,
			WebhookSecret:  cfg.Pix.WebhookSecret,
			NotifyURL:      cfg.Pix.NotifyURL,
			ExpireMinutes:  cfg.Pix.ExpireMinutes,
			TimeoutSeconds: cfg.Pix.TimeoutSeconds,
		})
		if err != nil {
			logger.Errorw("provider_init_pix_client_failed", "error", err)
		} else {
			c.PixClient = client
		}
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Warnw("provider_close_event_publisher_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.IdentityRepo = repository.NewIdentityRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.InvestmentRepo = repository.NewInvestmentRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.LeadRepo = repository.NewLeadRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuditLogRepo = repository.NewAdminAuditLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	defaults := service.CommissionDefaultSetting(c.Config.Commission, c.Config.Attribution)

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.CaptchaService = service.NewCaptchaService(c.SettingService, c.Config.Captcha)
	c.AdminAuditService = service.NewAdminAuditService(c.AuditLogRepo)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.AttributionService = service.NewAttributionService(c.AffiliateRepo, c.SettingService, defaults)
	c.IdentityService = service.NewIdentityService(c.Config, c.IdentityRepo, c.CaptchaService, c.AttributionService)
	c.AffiliateService = service.NewAffiliateService(
		c.AffiliateRepo,
		c.IdentityRepo,
		c.InvestmentRepo,
		c.CommissionRepo,
		c.Config.Server.PublicBaseURL,
	)
	c.CommissionService = service.NewCommissionService(
		c.InvestmentRepo,
		c.AffiliateRepo,
		c.CommissionRepo,
		c.AuditLogRepo,
		c.SettingService,
		defaults,
		c.QueueClient,
		c.Publisher,
	)

	var gateway service.PixGateway
	if c.PixClient != nil {
		gateway = c.PixClient
	}
	c.InvestmentService = service.NewInvestmentService(
		c.InvestmentRepo,
		c.IdentityRepo,
		c.AffiliateRepo,
		c.AttributionService,
		c.CommissionService,
		gateway,
		c.QueueClient,
		c.SettingService,
		defaults,
	)

	var store service.FunnelSessionStore
	if cache.Enabled() {
		store = cache.NewRedisFunnelStore()
	}
	c.FunnelService = service.NewFunnelService(
		store,
		c.LeadRepo,
		c.AttributionService,
		c.QueueClient,
		c.Publisher,
		time.Duration(c.Config.Funnel.SessionTTLMinutes)*time.Minute,
	)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
}
