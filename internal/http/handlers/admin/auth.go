package admin

import (
	"time"

	"github.com/agd-funnel/internal/constants"
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"

	"github.com/gin-gonic/gin"
)

// LoginRequest 后台登录请求
type LoginRequest struct {
	Username       string                              `json:"username" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginResponse 后台登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(constants.CaptchaSceneAdminLogin, req.CaptchaPayload.ToServicePayload()); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
			"is_super": admin.IsSuper,
		},
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}
