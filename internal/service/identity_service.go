package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/agd-funnel/internal/cache"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/i18n"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService 买家注册与登录服务
type IdentityService struct {
	cfg          *config.Config
	identityRepo repository.IdentityRepository
	captcha      *CaptchaService
	attribution  *AttributionService
	now          func() time.Time
}

// NewIdentityService 创建身份服务
func NewIdentityService(cfg *config.Config, identityRepo repository.IdentityRepository, captcha *CaptchaService, attribution *AttributionService) *IdentityService {
	return &IdentityService{
		cfg:          cfg,
		identityRepo: identityRepo,
		captcha:      captcha,
		attribution:  attribution,
		now:          time.Now,
	}
}

// IdentityJWTClaims 买家 JWT 声明
type IdentityJWTClaims struct {
	IdentityID   uint   `json:"identity_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	Phone       string
	Locale      string
	Captcha     CaptchaVerifyPayload
	Attribution *AttributionSession
}

// GenerateJWT 生成买家 JWT
func (s *IdentityService) GenerateJWT(identity *models.Identity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(resolveJWTExpireHours(s.cfg.UserJWT, 72)) * time.Hour)
	claims := IdentityJWTClaims{
		IdentityID:   identity.ID,
		Email:        identity.Email,
		TokenVersion: identity.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析买家 JWT
func (s *IdentityService) ParseJWT(tokenString string) (*IdentityJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &IdentityJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims, ok := token.Claims.(*IdentityJWTClaims); ok && token.Valid && claims.IdentityID != 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Register 注册买家身份，访客当前有效的推广码记录为 ReferredByCode
func (s *IdentityService) Register(input RegisterInput) (*models.Identity, string, time.Time, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, normalized, input.Password); err != nil {
		return nil, "", time.Time{}, err
	}
	if s.captcha != nil {
		if err := s.captcha.Verify(constants.CaptchaSceneRegister, input.Captcha); err != nil {
			return nil, "", time.Time{}, err
		}
	}

	exist, err := s.identityRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, upstream("load identity", err)
	}
	if exist != nil {
		return nil, "", time.Time{}, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := s.now()
	locale := i18n.NormalizeLocale(input.Locale)
	if locale == "" {
		locale = constants.LocalePtBR
	}
	identity := &models.Identity{
		Email:          normalized,
		PasswordHash:   string(hashedPassword),
		Name:           strings.TrimSpace(input.Name),
		Phone:          strings.TrimSpace(input.Phone),
		Locale:         locale,
		ReferredByCode: s.referralCode(input.Attribution),
		Status:         constants.IdentityStatusActive,
		LastLoginAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.identityRepo.Create(identity); err != nil {
		if isUniqueViolation(err) {
			return nil, "", time.Time{}, ErrEmailExists
		}
		return nil, "", time.Time{}, upstream("create identity", err)
	}

	token, expiresAt, err := s.GenerateJWT(identity)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetIdentityAuthState(context.Background(), cache.BuildIdentityAuthState(identity))
	logger.Infow("identity_registered",
		"identity_id", identity.ID,
		"referred_by_code", identity.ReferredByCode,
	)
	return identity, token, expiresAt, nil
}

func (s *IdentityService) referralCode(session *AttributionSession) string {
	if s.attribution == nil || session == nil {
		return ""
	}
	resolved, err := s.attribution.Resolve(session)
	if err != nil {
		logger.Warnw("identity_attribution_resolve_failed", "visitor_key", session.VisitorKey, "error", err)
		return ""
	}
	if resolved == nil {
		return ""
	}
	return resolved.Code
}

// Login 买家登录
func (s *IdentityService) Login(email, password string, captcha CaptchaVerifyPayload) (*models.Identity, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if s.captcha != nil {
		if err := s.captcha.Verify(constants.CaptchaSceneLogin, captcha); err != nil {
			return nil, "", time.Time{}, err
		}
	}
	identity, err := s.identityRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, upstream("load identity", err)
	}
	if identity == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(identity.Status) != constants.IdentityStatusActive {
		return nil, "", time.Time{}, ErrIdentityDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(identity)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := s.now()
	identity.LastLoginAt = &now
	if err := s.identityRepo.UpdateLastLogin(identity.ID, now); err != nil {
		logger.Warnw("identity_last_login_update_failed", "identity_id", identity.ID, "error", err)
	}
	_ = cache.SetIdentityAuthState(context.Background(), cache.BuildIdentityAuthState(identity))
	return identity, token, expiresAt, nil
}

// GetByID 获取身份
func (s *IdentityService) GetByID(id uint) (*models.Identity, error) {
	identity, err := s.identityRepo.GetByID(id)
	if err != nil {
		return nil, upstream("load identity", err)
	}
	if identity == nil {
		return nil, ErrIdentityNotFound
	}
	return identity, nil
}

// ResolveAuthState 读取鉴权快照，缓存未命中时回源数据库
func (s *IdentityService) ResolveAuthState(ctx context.Context, identityID uint) (*cache.IdentityAuthState, error) {
	state, hit, err := cache.GetIdentityAuthState(ctx, identityID)
	if err == nil && hit && state != nil {
		return state, nil
	}
	identity, err := s.identityRepo.GetByID(identityID)
	if err != nil {
		return nil, upstream("load identity", err)
	}
	if identity == nil {
		return nil, ErrIdentityNotFound
	}
	state = cache.BuildIdentityAuthState(identity)
	_ = cache.SetIdentityAuthState(ctx, state)
	return state, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrEmailInvalid
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrEmailInvalid
	}
	return normalized, nil
}

func resolveJWTExpireHours(cfg config.JWTConfig, fallback int) int {
	if cfg.ExpireHours > 0 {
		return cfg.ExpireHours
	}
	return fallback
}

// IsCredentialError 判断是否为登录凭证类错误
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrIdentityDisabled)
}
