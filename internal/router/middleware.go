package router

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/agd-funnel/internal/authz"
	"github.com/agd-funnel/internal/cache"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
			handlershared.VisitorHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	return response.RequestID(c)
}

// AdminTokenParser 管理员令牌解析与鉴权快照
type AdminTokenParser interface {
	ParseJWT(tokenString string) (*service.JWTClaims, error)
	ResolveAuthState(ctx context.Context, adminID uint) (*cache.AdminAuthState, error)
}

// IdentityTokenParser 买家令牌解析与鉴权快照
type IdentityTokenParser interface {
	ParseJWT(tokenString string) (*service.IdentityJWTClaims, error)
	ResolveAuthState(ctx context.Context, identityID uint) (*cache.IdentityAuthState, error)
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Abort(c, response.CodeUnauthorized, i18n.T(i18n.ResolveLocale(c), key))
}

// bearerToken 提取 Authorization: Bearer 令牌
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "error.auth_header_missing")
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") || strings.TrimSpace(parts[1]) == "" {
		abortUnauthorized(c, "error.auth_header_invalid")
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// JWTAuthMiddleware 管理员 JWT 鉴权中间件
func JWTAuthMiddleware(secretKey string, parser AdminTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		if parser == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}
		claims, err := parser.ParseJWT(tokenString)
		if err != nil || claims == nil || claims.AdminID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		state, err := parser.ResolveAuthState(c.Request.Context(), claims.AdminID)
		if err != nil || state == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if claims.TokenVersion != state.TokenVersion {
			abortUnauthorized(c, "error.token_revoked")
			return
		}

		c.Set(handlershared.ContextAdminID, claims.AdminID)
		c.Set(handlershared.ContextAdminUsername, claims.Username)
		c.Set(handlershared.ContextAdminIsSuper, state.IsSuper)
		c.Next()
	}
}

// AdminRBACMiddleware 管理端 RBAC 鉴权中间件
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		if isSuper, ok := c.Get(handlershared.ContextAdminIsSuper); ok {
			if superValue, typeOK := isSuper.(bool); typeOK && superValue {
				c.Next()
				return
			}
		}

		var adminID uint
		if raw, exists := c.Get(handlershared.ContextAdminID); exists {
			if value, ok := raw.(uint); ok {
				adminID = value
			}
		}
		if adminID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Abort(c, response.CodeForbidden, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			return
		}

		c.Next()
	}
}

// UserJWTAuthMiddleware 买家 JWT 鉴权中间件
func UserJWTAuthMiddleware(secretKey string, parser IdentityTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		if parser == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}
		claims, err := parser.ParseJWT(tokenString)
		if err != nil || claims == nil || claims.IdentityID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		state, err := parser.ResolveAuthState(c.Request.Context(), claims.IdentityID)
		if err != nil || state == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		if !isActiveIdentityStatus(state.Status) {
			abortUnauthorized(c, "error.identity_disabled")
			return
		}
		if claims.TokenVersion != state.TokenVersion {
			abortUnauthorized(c, "error.token_revoked")
			return
		}

		c.Set(handlershared.ContextIdentityID, claims.IdentityID)
		c.Set(handlershared.ContextIdentityEmail, claims.Email)
		c.Next()
	}
}

func isActiveIdentityStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.IdentityStatusActive
}
