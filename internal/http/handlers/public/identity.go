package public

import (
	"time"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string                              `json:"email" binding:"required"`
	Password string                              `json:"password" binding:"required"`
	Name     string                              `json:"name"`
	Phone    string                              `json:"phone"`
	Locale   string                              `json:"locale"`
	Captcha  handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string                              `json:"email" binding:"required"`
	Password string                              `json:"password" binding:"required"`
	Captcha  handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// IdentityTokenResponse 登录/注册返回
type IdentityTokenResponse struct {
	User      *models.Identity `json:"user"`
	Token     string           `json:"token"`
	ExpiresAt string           `json:"expires_at"`
}

func newIdentityTokenResponse(identity *models.Identity, token string, expiresAt time.Time) IdentityTokenResponse {
	return IdentityTokenResponse{
		User:      identity,
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}
}

// Register 买家注册，当前有效归因写入 referred_by_code
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = i18n.ResolveLocale(c)
	}
	identity, token, expiresAt, err := h.IdentityService.Register(service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Phone:       req.Phone,
		Locale:      locale,
		Captcha:     req.Captcha.ToServicePayload(),
		Attribution: h.attributionSession(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newIdentityTokenResponse(identity, token, expiresAt))
}

// Login 买家登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	identity, token, expiresAt, err := h.IdentityService.Login(req.Email, req.Password, req.Captcha.ToServicePayload())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newIdentityTokenResponse(identity, token, expiresAt))
}

// GetMe 获取当前买家信息
func (h *Handler) GetMe(c *gin.Context) {
	identityID, ok := getIdentityID(c)
	if !ok {
		return
	}
	identity, err := h.IdentityService.GetByID(identityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, identity)
}
