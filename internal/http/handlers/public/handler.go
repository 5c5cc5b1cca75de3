package public

import (
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/provider"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 前台/公开接口处理器入口
// 说明：该处理器用于落地页漏斗、推广链接、买家与推广用户 API。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

func getIdentityID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.ContextIdentityID)
}

// attributionSession 读取当前访客的归因上下文
func (h *Handler) attributionSession(c *gin.Context) *service.AttributionSession {
	return handlershared.ReadAttributionSession(c, h.Config.Attribution)
}
