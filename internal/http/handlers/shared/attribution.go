package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VisitorHeader 无 Cookie 场景下由前端回传的访客标识
const VisitorHeader = "X-Visitor-Key"

const visitorCookieMaxAge = 365 * 24 * 3600

// ReadAttributionSession 从 Cookie / 请求头组装归因上下文，不写回任何 Cookie。
// 签名不匹配的归因 Cookie 按不存在处理。
func ReadAttributionSession(c *gin.Context, cfg config.AttributionConfig) *service.AttributionSession {
	session := &service.AttributionSession{VisitorKey: readVisitorKey(c, cfg)}
	raw, err := c.Cookie(cfg.CookieName)
	if err != nil || strings.TrimSpace(raw) == "" {
		return session
	}
	fast, ok := decodeAttributionCookie(cfg.CookieSecret, raw)
	if !ok {
		RequestLog(c).Debugw("attribution_cookie_invalid")
		return session
	}
	session.Fast = fast
	return session
}

// EnsureVisitorKey 读取访客标识，缺失时生成并写入 Cookie。
func EnsureVisitorKey(c *gin.Context, cfg config.AttributionConfig, session *service.AttributionSession) {
	if session == nil {
		return
	}
	if strings.TrimSpace(session.VisitorKey) == "" {
		session.VisitorKey = uuid.NewString()
	}
	setCookie(c, cfg, cfg.VisitorCookieName, session.VisitorKey, visitorCookieMaxAge)
}

// WriteAttributionCookie 同步短期归因快照；快照为空时清除 Cookie。
func WriteAttributionCookie(c *gin.Context, cfg config.AttributionConfig, session *service.AttributionSession, now time.Time) {
	if session == nil || session.Fast == nil || !session.Fast.Active(now) {
		if _, err := c.Cookie(cfg.CookieName); err == nil {
			setCookie(c, cfg, cfg.CookieName, "", -1)
		}
		return
	}
	value, err := encodeAttributionCookie(cfg.CookieSecret, session.Fast)
	if err != nil {
		return
	}
	maxAge := int(session.Fast.ExpiresAt.Sub(now).Seconds())
	setCookie(c, cfg, cfg.CookieName, value, maxAge)
}

// encodeAttributionCookie 格式：base64(json).base64(hmac-sha256)
func encodeAttributionCookie(secret string, fast *service.FastAttribution) (string, error) {
	body, err := json.Marshal(fast)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(body)
	return payload + "." + signAttribution(secret, payload), nil
}

func decodeAttributionCookie(secret, raw string) (*service.FastAttribution, bool) {
	payload, signature, found := strings.Cut(strings.TrimSpace(raw), ".")
	if !found || payload == "" || signature == "" {
		return nil, false
	}
	if !hmac.Equal([]byte(signature), []byte(signAttribution(secret, payload))) {
		return nil, false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	var fast service.FastAttribution
	if err := json.Unmarshal(decoded, &fast); err != nil {
		return nil, false
	}
	return &fast, true
}

func signAttribution(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func readVisitorKey(c *gin.Context, cfg config.AttributionConfig) string {
	if value, err := c.Cookie(cfg.VisitorCookieName); err == nil && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(c.GetHeader(VisitorHeader))
}

func setCookie(c *gin.Context, cfg config.AttributionConfig, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", strings.TrimSpace(cfg.CookieDomain), cfg.CookieSecure, true)
}
