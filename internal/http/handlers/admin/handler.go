package admin

import (
	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/provider"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 后台接口：销售确认、佣金结算、推广用户管理与运营看板
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

// auditActor 构造审计操作人，缺少管理员上下文时已由 getAdminID 返回 401
func auditActor(c *gin.Context) (service.AuditActor, bool) {
	adminID, ok := getAdminID(c)
	if !ok {
		return service.AuditActor{}, false
	}
	return service.AuditActor{
		AdminID:   adminID,
		Username:  handlershared.GetContextString(c, handlershared.ContextAdminUsername),
		RequestID: response.RequestID(c),
	}, true
}
