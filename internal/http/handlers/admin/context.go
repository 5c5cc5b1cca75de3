package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.ContextAdminID)
}

func isSuperAdmin(c *gin.Context) bool {
	value, exists := c.Get(handlershared.ContextAdminIsSuper)
	if !exists {
		return false
	}
	flag, ok := value.(bool)
	return ok && flag
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseCreatedRange 解析 created_from / created_to 查询参数
func parseCreatedRange(c *gin.Context) (*time.Time, *time.Time, error) {
	from, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		return nil, nil, err
	}
	to, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func queryUint(c *gin.Context, key string) uint {
	value, _ := strconv.ParseUint(strings.TrimSpace(c.Query(key)), 10, 64)
	return uint(value)
}
