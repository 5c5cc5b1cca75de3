package public

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agd-funnel/internal/constants"
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/queue"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultRedirectPath = "/"

// CaptureAttributionRequest 记录推广归因请求
type CaptureAttributionRequest struct {
	Code            string `json:"code" binding:"required"`
	SourceChannel   string `json:"source_channel"`
	DestinationPage string `json:"destination_page"`
}

// ReferralRedirect 推广链接入口：记录归因与点击后跳转到站内页面
// 推广码无效时仍然跳转，不暴露错误
func (h *Handler) ReferralRedirect(c *gin.Context) {
	code := c.Param("code")
	destination := sanitizeRedirectPath(c.Query("to"))
	source := strings.TrimSpace(c.Query("utm_source"))
	if source == "" {
		source = constants.SourceChannelLink
	}

	session := h.attributionSession(c)
	handlershared.EnsureVisitorKey(c, h.Config.Attribution, session)

	if _, err := h.AttributionService.Capture(session, code, source, destination); err != nil {
		handlershared.RequestLog(c).Debugw("referral_capture_skipped", "affiliate_code", code, "error", err)
	} else {
		h.WriteAttribution(c, session)
	}
	// 点击统计与归因捕获互不依赖
	h.trackClick(c, code, session.VisitorKey, destination, source)
	c.Redirect(http.StatusFound, destination)
}

// CaptureAttribution 前端落地页主动上报推广码
func (h *Handler) CaptureAttribution(c *gin.Context) {
	var req CaptureAttributionRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	session := h.attributionSession(c)
	handlershared.EnsureVisitorKey(c, h.Config.Attribution, session)

	destination := sanitizeRedirectPath(req.DestinationPage)
	resolved, err := h.AttributionService.Capture(session, req.Code, req.SourceChannel, destination)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.WriteAttribution(c, session)
	h.trackClick(c, req.Code, session.VisitorKey, destination, req.SourceChannel)
	response.Success(c, resolved)
}

// GetAttribution 查询当前访客的有效归因
func (h *Handler) GetAttribution(c *gin.Context) {
	session := h.attributionSession(c)
	resolved, err := h.AttributionService.Resolve(session)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.WriteAttribution(c, session)
	response.Success(c, gin.H{"attribution": resolved})
}

// WriteAttribution 同步归因 Cookie
func (h *Handler) WriteAttribution(c *gin.Context, session *service.AttributionSession) {
	handlershared.WriteAttributionCookie(c, h.Config.Attribution, session, time.Now())
}

// trackClick 点击统计尽力而为，失败只记日志
func (h *Handler) trackClick(c *gin.Context, code, visitorKey, destination, source string) {
	payload := queue.AffiliateClickPayload{
		AffiliateCode: code,
		VisitorKey:    visitorKey,
		Destination:   destination,
		Source:        source,
		Referrer:      c.GetHeader("Referer"),
		ClientIP:      c.ClientIP(),
		UserAgent:     c.GetHeader("User-Agent"),
	}
	if h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueAffiliateClick(payload)
		if err == nil {
			return
		}
		handlershared.RequestLog(c).Warnw("affiliate_click_enqueue_failed", "affiliate_code", code, "error", err)
	}
	if _, err := h.AttributionService.RecordClick(service.AffiliateClickInput{
		AffiliateCode: payload.AffiliateCode,
		VisitorKey:    payload.VisitorKey,
		Destination:   payload.Destination,
		Source:        payload.Source,
		Referrer:      payload.Referrer,
		ClientIP:      payload.ClientIP,
		UserAgent:     payload.UserAgent,
	}); err != nil {
		handlershared.RequestLog(c).Warnw("affiliate_click_record_failed", "affiliate_code", code, "error", err)
	}
}

// sanitizeRedirectPath 仅允许站内相对路径，防止开放重定向
func sanitizeRedirectPath(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" || !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") || strings.Contains(value, "\\") {
		return defaultRedirectPath
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return defaultRedirectPath
	}
	return parsed.RequestURI()
}
