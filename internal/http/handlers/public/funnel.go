package public

import (
	"strings"

	"github.com/agd-funnel/internal/funnel"
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"

	"github.com/gin-gonic/gin"
)

// StartFunnelRequest 开启漏斗请求
type StartFunnelRequest struct {
	Language string `json:"language"`
}

// AdvanceFunnelRequest 推进漏斗请求
type AdvanceFunnelRequest struct {
	Input string `json:"input"`
}

// FunnelView 漏斗会话响应
type FunnelView struct {
	Session  *funnel.Session `json:"session"`
	Step     string          `json:"step"`
	Result   *funnel.Result  `json:"result,omitempty"`
	Finished bool            `json:"finished"`
}

func newFunnelView(session *funnel.Session, result *funnel.Result) FunnelView {
	return FunnelView{
		Session:  session,
		Step:     session.Step.String(),
		Result:   result,
		Finished: session.Done(),
	}
}

// StartFunnel 开启漏斗会话
func (h *Handler) StartFunnel(c *gin.Context) {
	var req StartFunnelRequest
	if c.Request.ContentLength > 0 && !handlershared.BindJSON(c, &req) {
		return
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = i18n.ResolveLocale(c)
	}

	attribution := h.attributionSession(c)
	handlershared.EnsureVisitorKey(c, h.Config.Attribution, attribution)

	session, err := h.FunnelService.Start(c.Request.Context(), language, attribution.VisitorKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if header := strings.TrimSpace(h.Config.Funnel.SessionHeader); header != "" {
		c.Header(header, session.ID)
	}
	response.Success(c, newFunnelView(session, nil))
}

// GetFunnel 查询漏斗会话
func (h *Handler) GetFunnel(c *gin.Context) {
	session, err := h.FunnelService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newFunnelView(session, nil))
}

// AdvanceFunnel 提交当前步骤输入
func (h *Handler) AdvanceFunnel(c *gin.Context) {
	var req AdvanceFunnelRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	session, result, err := h.FunnelService.Advance(c.Request.Context(), c.Param("id"), req.Input, h.attributionSession(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, newFunnelView(session, &result))
}
