package shared

import (
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"
	"github.com/agd-funnel/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if id := response.RequestID(c); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	respond(c, response.WrapError(code, key, i18n.T(i18n.ResolveLocale(c), key), err))
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	respond(c, response.WrapError(code, "", msg, err))
}

func respond(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		log := RequestLog(c)
		if appErr.ServerSide() {
			log.Errorw("handler_error", appErr.LogFields()...)
		} else {
			log.Warnw("handler_error", appErr.LogFields()...)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// BindJSON 绑定请求体，失败时返回 400。
func BindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		RequestLog(c).Debugw("handler_bind_failed", "error", err)
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return false
	}
	return true
}
