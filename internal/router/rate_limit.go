package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	handlershared "github.com/agd-funnel/internal/http/handlers/shared"
	"github.com/agd-funnel/internal/http/response"
	"github.com/agd-funnel/internal/i18n"
	"github.com/agd-funnel/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

// 首次超限时把窗口延长为封禁时长
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local limit = tonumber(ARGV[2])
local block = tonumber(ARGV[3])
if block > 0 and current == limit + 1 then
	redis.call("EXPIRE", KEYS[1], block)
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// rateLimitHit 一次计数结果
type rateLimitHit struct {
	Count      int64
	TTLSeconds int64
}

// RateLimitMiddleware Redis 频率限制中间件，Redis 不可用时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := rule.key(c, keyFunc)
		result, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds).Result()
		var hit rateLimitHit
		if err == nil {
			hit, err = parseRateLimitResult(result)
		}
		if err != nil {
			logger.Warnw("rate_limit_check_failed", "prefix", rule.Prefix, "error", err)
			response.Abort(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			return
		}
		if hit.Count > int64(rule.MaxRequests) {
			wait := rule.retryAfter(hit.TTLSeconds)
			c.Header("Retry-After", strconv.Itoa(wait))
			response.Abort(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), rule.messageKey(), wait))
			return
		}

		c.Next()
	}
}

func (r RateLimitRule) key(c *gin.Context, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if r.Prefix != "" {
		key = fmt.Sprintf("%s:%s", r.Prefix, key)
	}
	return key
}

// retryAfter 计算需等待的秒数，依次回退到封禁时长、窗口时长
func (r RateLimitRule) retryAfter(ttlSeconds int64) int {
	for _, candidate := range []int{int(ttlSeconds), r.BlockSeconds, r.WindowSeconds} {
		if candidate >= 1 {
			return candidate
		}
	}
	return 1
}

func (r RateLimitRule) messageKey() string {
	if key := strings.TrimSpace(r.MessageKey); key != "" {
		return key
	}
	return "error.rate_limited"
}

func parseRateLimitResult(result interface{}) (rateLimitHit, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return rateLimitHit{}, fmt.Errorf("unexpected rate limit result %T", result)
	}
	count, ok := values[0].(int64)
	if !ok {
		return rateLimitHit{}, fmt.Errorf("unexpected rate limit count %T", values[0])
	}
	ttl, _ := values[1].(int64)
	return rateLimitHit{Count: count, TTLSeconds: ttl}, nil
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

// KeyByVisitor 优先使用访客标识，缺失时回退到 IP
func KeyByVisitor(cookieName string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		visitor := strings.TrimSpace(c.GetHeader(handlershared.VisitorHeader))
		if visitor == "" && cookieName != "" {
			if value, err := c.Cookie(cookieName); err == nil {
				visitor = strings.TrimSpace(value)
			}
		}
		if visitor == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("v:%s", visitor)
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	value, ok := payload[field]
	if !ok {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}
