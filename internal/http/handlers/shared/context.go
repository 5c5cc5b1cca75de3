package shared

import (
	"strconv"
	"strings"

	"github.com/agd-funnel/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入上下文的键
const (
	ContextIdentityID    = "identity_id"
	ContextIdentityEmail = "identity_email"
	ContextAdminID       = "admin_id"
	ContextAdminUsername = "username"
	ContextAdminIsSuper  = "admin_is_super"
)

// GetContextUint 从上下文读取 uint 值，缺失或类型不符时返回 401。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		if v > 0 {
			return v, true
		}
	case int:
		if v > 0 {
			return uint(v), true
		}
	case float64:
		if v > 0 {
			return uint(v), true
		}
	}
	RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
	return 0, false
}

// GetContextString 从上下文读取字符串
func GetContextString(c *gin.Context, key string) string {
	value, ok := c.Get(key)
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return text
}

// ParseParamUint 解析路径中的正整数 ID，非法时返回 400。
func ParseParamUint(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
