package service

import (
	"context"
	"strings"
	"time"

	"github.com/agd-funnel/internal/cache"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 后台管理员认证服务
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
	now       func() time.Time
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
		now:       time.Now,
	}
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// JWTClaims 管理员 JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(resolveJWTExpireHours(s.cfg.JWT, 12)) * time.Hour)
	claims := JWTClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.AdminID != 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Login 管理员登录
func (s *AuthService) Login(username, password string) (*models.Admin, string, time.Time, error) {
	admin, err := s.adminRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", time.Time{}, upstream("load admin", err)
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := s.now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.UpdateLastLogin(admin.ID, now); err != nil {
		logger.Warnw("admin_last_login_update_failed", "admin_id", admin.ID, "error", err)
	}
	_ = cache.SetAdminAuthState(context.Background(), cache.BuildAdminAuthState(admin))
	return admin, token, expiresAt, nil
}

// ResolveAuthState 读取管理员鉴权快照，缓存未命中时回源数据库
func (s *AuthService) ResolveAuthState(ctx context.Context, adminID uint) (*cache.AdminAuthState, error) {
	state, hit, err := cache.GetAdminAuthState(ctx, adminID)
	if err == nil && hit && state != nil {
		return state, nil
	}
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return nil, upstream("load admin", err)
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}
	state = cache.BuildAdminAuthState(admin)
	_ = cache.SetAdminAuthState(ctx, state)
	return state, nil
}

// EnsureAdmin 创建或返回指定账号的管理员（种子命令使用）
func (s *AuthService) EnsureAdmin(username, password string, isSuper bool) (*models.Admin, bool, error) {
	username = strings.TrimSpace(username)
	existing, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	admin := &models.Admin{Username: username, PasswordHash: hash, IsSuper: isSuper}
	if err := s.adminRepo.Create(admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}
