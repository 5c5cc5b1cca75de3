package public

import (
	"strings"

	"github.com/agd-funnel/internal/catalog"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/funnel"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"

	"github.com/gin-gonic/gin"
)

// 允许前端拉取的文案前缀
var publicMessagePrefixes = map[string]struct{}{
	"funnel.":    {},
	"checkout.":  {},
	"affiliate.": {},
}

// GetConfig 获取落地页所需的公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"plans": catalog.Plans(),
		"tiers": catalog.TierLadder(),
		"funnel": gin.H{
			"rewards": gin.H{
				"name":    funnel.RewardName,
				"email":   funnel.RewardEmail,
				"profile": funnel.RewardProfile,
			},
			"completion_total": funnel.CompletionTotal,
			"languages":        []string{funnel.LanguagePt, funnel.LanguageEn, funnel.LanguageEs},
		},
		"affiliate": gin.H{
			"minimum_amount":        catalog.MinimumEligibleAmount().StringFixed(2),
			"attribution_ttl_hours": h.AttributionService.TTL().Hours(),
		},
		"captcha": gin.H{
			"register":    h.CaptchaService.Enabled(constants.CaptchaSceneRegister),
			"login":       h.CaptchaService.Enabled(constants.CaptchaSceneLogin),
			"admin_login": h.CaptchaService.Enabled(constants.CaptchaSceneAdminLogin),
		},
	})
}

// GetPlans 获取套餐列表
func (h *Handler) GetPlans(c *gin.Context) {
	response.Success(c, catalog.Plans())
}

// GetMessages 获取指定前缀的多语言文案
func (h *Handler) GetMessages(c *gin.Context) {
	prefix := strings.TrimSpace(c.DefaultQuery("prefix", "funnel."))
	if _, ok := publicMessagePrefixes[prefix]; !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	locale := i18n.ResolveLocale(c)
	response.Success(c, gin.H{
		"locale":   locale,
		"messages": i18n.Record(locale, prefix),
	})
}

// GetImageCaptcha 获取图片验证码
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, challenge)
}
