// Package i18n 提供多语言文案与请求语言解析。
//
// 各语言表在首次使用时与默认语言（pt-BR）合并为完整记录，之后只读。
package i18n

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agd-funnel/internal/constants"

	"github.com/gin-gonic/gin"
)

const (
	LocalePT = constants.LocalePtBR
	LocaleEN = constants.LocaleEnUS
	LocaleES = constants.LocaleEsES
)

// DefaultLocale 默认语言
const DefaultLocale = LocalePT

var (
	mergeOnce sync.Once
	merged    map[string]map[string]string
)

func tables() map[string]map[string]string {
	mergeOnce.Do(func() {
		merged = mergeCatalogs(DefaultLocale, catalogs)
	})
	return merged
}

// mergeCatalogs 以默认语言补齐各语言缺失或为空的文案
func mergeCatalogs(defaultLocale string, source map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(source))
	base := source[defaultLocale]
	for locale, table := range source {
		full := make(map[string]string, len(base))
		for key, value := range base {
			full[key] = value
		}
		for key, value := range table {
			if strings.TrimSpace(value) != "" {
				full[key] = value
			}
		}
		out[locale] = full
	}
	return out
}

// NormalizeLocale 将任意语言标记归一化为支持的语言
func NormalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexAny(value, ",;"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	switch {
	case strings.HasPrefix(value, "pt"):
		return LocalePT
	case strings.HasPrefix(value, "en"):
		return LocaleEN
	case strings.HasPrefix(value, "es"):
		return LocaleES
	default:
		return ""
	}
}

// ResolveLocale 从请求中解析语言：query lang > X-Locale > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	candidates := []string{c.Query("lang"), c.GetHeader("X-Locale")}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		candidates = append(candidates, part)
	}
	for _, candidate := range candidates {
		if locale := NormalizeLocale(candidate); locale != "" {
			return locale
		}
	}
	return DefaultLocale
}

// T 返回翻译文案，缺失时返回 key 本身
func T(locale, key string) string {
	table, ok := tables()[NormalizeLocale(locale)]
	if !ok {
		table = tables()[DefaultLocale]
	}
	if value, ok := table[key]; ok {
		return value
	}
	return key
}

// Sprintf 格式化翻译文案
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// Record 返回某语言下指定前缀的完整文案记录（前缀会被去除）
func Record(locale, prefix string) map[string]string {
	table, ok := tables()[NormalizeLocale(locale)]
	if !ok {
		table = tables()[DefaultLocale]
	}
	out := make(map[string]string)
	for key, value := range table {
		if strings.HasPrefix(key, prefix) {
			out[strings.TrimPrefix(key, prefix)] = value
		}
	}
	return out
}
