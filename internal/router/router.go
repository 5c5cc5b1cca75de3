package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agd-funnel/internal/authz"
	"github.com/agd-funnel/internal/cache"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
	adminhandlers "github.com/agd-funnel/internal/http/handlers/admin"
	publichandlers "github.com/agd-funnel/internal/http/handlers/public"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	funnelRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:funnel", redisPrefix),
		WindowSeconds: cfg.Security.FunnelRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.FunnelRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.FunnelRateLimit.BlockSeconds,
	}
	funnelLimiter := RateLimitMiddleware(redisClient, funnelRule, KeyByVisitor(cfg.Attribution.VisitorCookieName))

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 推广链接入口
	r.GET("/r/:code", publicHandler.ReferralRedirect)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/plans", publicHandler.GetPlans)
			public.GET("/messages", publicHandler.GetMessages)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)

			// 落地页漏斗
			public.POST("/funnel/sessions", funnelLimiter, publicHandler.StartFunnel)
			public.GET("/funnel/sessions/:id", publicHandler.GetFunnel)
			public.POST("/funnel/sessions/:id/advance", funnelLimiter, publicHandler.AdvanceFunnel)

			// 推广归因
			public.POST("/attribution/capture", publicHandler.CaptureAttribution)
			public.GET("/attribution", publicHandler.GetAttribution)
		}

		// 买家认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 买家接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.IdentityService))
		{
			user.GET("/me", publicHandler.GetMe)
			user.GET("/me/investments", publicHandler.ListMyInvestments)
			user.POST("/investments", publicHandler.CreateInvestment)
			user.GET("/investments/:id", publicHandler.GetMyInvestment)
			user.GET("/investments/:id/withdrawal-quote", publicHandler.QuoteWithdrawal)

			// 推广用户中心
			user.GET("/affiliate/eligibility", publicHandler.GetAffiliateEligibility)
			user.POST("/affiliate/open", publicHandler.OpenAffiliate)
			user.GET("/affiliate/dashboard", publicHandler.GetAffiliateDashboard)
			user.GET("/affiliate/commissions", publicHandler.ListAffiliateCommissions)
		}

		apiV1.POST("/payments/pix/webhook", publicHandler.PixWebhook)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
				authorized.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

				// 推广用户与线索
				authorized.GET("/affiliates", adminHandler.ListAffiliateProfiles)
				authorized.PATCH("/affiliates/:id/status", adminHandler.UpdateAffiliateProfileStatus)
				authorized.GET("/leads", adminHandler.ListLeads)

				// 销售与佣金
				authorized.GET("/investments", adminHandler.ListInvestments)
				authorized.POST("/investments/:id/confirm", adminHandler.ConfirmInvestment)
				authorized.POST("/investments/:id/cancel", adminHandler.CancelInvestment)
				authorized.GET("/commissions", adminHandler.ListCommissions)
				authorized.POST("/commissions/:id/pay", adminHandler.PayCommission)
				authorized.POST("/commissions/:id/cancel", adminHandler.CancelCommission)

				// 设置管理
				authorized.GET("/settings/commission", adminHandler.GetCommissionSetting)
				authorized.PUT("/settings/commission", adminHandler.UpdateCommissionSetting)
				authorized.GET("/settings/captcha", adminHandler.GetCaptchaSetting)
				authorized.PUT("/settings/captcha", adminHandler.UpdateCaptchaSetting)

				// 审计与权限
				authorized.GET("/audit-logs", adminHandler.ListAuditLogs)
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成后台权限目录
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") || item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})
	return items
}

func deriveAdminPermissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(object), "/"), "/")
	if len(segments) <= 1 || segments[0] != "admin" {
		if segments[0] == "" {
			return "system"
		}
		return segments[0]
	}
	return segments[1]
}
