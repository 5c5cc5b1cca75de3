package admin

import (
	"github.com/agd-funnel/internal/constants"
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCommissionSetting 获取佣金与归因配置
func (h *Handler) GetCommissionSetting(c *gin.Context) {
	setting, err := h.SettingService.GetCommissionSetting(h.commissionDefaults())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, setting)
}

// UpdateCommissionSetting 更新佣金与归因配置
func (h *Handler) UpdateCommissionSetting(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	var req service.CommissionSetting
	if !handlershared.BindJSON(c, &req) {
		return
	}
	updated, err := h.SettingService.UpdateCommissionSetting(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.recordSettingAudit(c, actor, constants.SettingKeyCommissionConfig, service.CommissionSettingToMap(updated))
	response.Success(c, updated)
}

// GetCaptchaSetting 获取验证码配置
func (h *Handler) GetCaptchaSetting(c *gin.Context) {
	setting, err := h.SettingService.GetCaptchaSetting(h.Config.Captcha)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, setting)
}

// UpdateCaptchaSetting 更新验证码配置
func (h *Handler) UpdateCaptchaSetting(c *gin.Context) {
	actor, ok := auditActor(c)
	if !ok {
		return
	}
	var req service.CaptchaSetting
	if !handlershared.BindJSON(c, &req) {
		return
	}
	normalized := service.NormalizeCaptchaSetting(req)
	value := service.CaptchaSettingToMap(normalized)
	if _, err := h.SettingService.Update(constants.SettingKeyCaptchaConfig, value); err != nil {
		respondServiceError(c, err)
		return
	}
	h.CaptchaService.InvalidateCache()
	h.recordSettingAudit(c, actor, constants.SettingKeyCaptchaConfig, value)
	response.Success(c, normalized)
}

func (h *Handler) commissionDefaults() service.CommissionSetting {
	return service.CommissionDefaultSetting(h.Config.Commission, h.Config.Attribution)
}

func (h *Handler) recordSettingAudit(c *gin.Context, actor service.AuditActor, key string, value map[string]interface{}) {
	if err := h.AdminAuditService.RecordSettingUpdate(actor, key, models.JSON(value)); err != nil {
		requestLog(c).Warnw("admin_audit_write_failed", "action", "setting_update", "key", key, "error", err)
	}
}
