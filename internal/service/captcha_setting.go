package service

import (
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"
)

// CaptchaSetting 图片验证码配置
type CaptchaSetting struct {
	Enabled         bool `json:"enabled"`
	SceneRegister   bool `json:"scene_register"`
	SceneLogin      bool `json:"scene_login"`
	SceneAdminLogin bool `json:"scene_admin_login"`
	Length          int  `json:"length"`
	Width           int  `json:"width"`
	Height          int  `json:"height"`
	NoiseCount      int  `json:"noise_count"`
	ExpireSeconds   int  `json:"expire_seconds"`
	MaxStore        int  `json:"max_store"`
}

// captchaBound 数值项的存储键与取值范围，0 视为未设置
type captchaBound struct {
	key      string
	field    func(*CaptchaSetting) *int
	min, max int
	fallback int
}

var captchaBounds = []captchaBound{
	{key: "length", field: func(s *CaptchaSetting) *int { return &s.Length }, min: 4, max: 8, fallback: 5},
	{key: "width", field: func(s *CaptchaSetting) *int { return &s.Width }, min: 80, max: 480, fallback: 240},
	{key: "height", field: func(s *CaptchaSetting) *int { return &s.Height }, min: 30, max: 160, fallback: 80},
	{key: "noise_count", field: func(s *CaptchaSetting) *int { return &s.NoiseCount }, min: 0, max: 20, fallback: 2},
	{key: "expire_seconds", field: func(s *CaptchaSetting) *int { return &s.ExpireSeconds }, min: 30, max: 3600, fallback: 300},
	{key: "max_store", field: func(s *CaptchaSetting) *int { return &s.MaxStore }, min: 100, max: 1000000, fallback: 10240},
}

// scenes 场景开关，存储键为 scene_<场景>
func (s *CaptchaSetting) scenes() map[string]*bool {
	return map[string]*bool{
		constants.CaptchaSceneRegister:   &s.SceneRegister,
		constants.CaptchaSceneLogin:      &s.SceneLogin,
		constants.CaptchaSceneAdminLogin: &s.SceneAdminLogin,
	}
}

// CaptchaDefaultSetting 以启动配置作为默认值：默认保护注册与后台登录
func CaptchaDefaultSetting(cfg config.CaptchaConfig) CaptchaSetting {
	return NormalizeCaptchaSetting(CaptchaSetting{
		Enabled:         cfg.Enabled,
		SceneRegister:   true,
		SceneAdminLogin: true,
		Length:          cfg.Length,
		Width:           cfg.Width,
		Height:          cfg.Height,
		NoiseCount:      cfg.NoiseCount,
		ExpireSeconds:   cfg.ExpireSeconds,
		MaxStore:        cfg.MaxStore,
	})
}

// NormalizeCaptchaSetting 数值项收敛到允许范围
func NormalizeCaptchaSetting(setting CaptchaSetting) CaptchaSetting {
	for _, bound := range captchaBounds {
		target := bound.field(&setting)
		*target = clampInt(*target, bound.min, bound.max, bound.fallback)
	}
	return setting
}

// CaptchaSettingToMap 转换为 settings 存储结构
func CaptchaSettingToMap(setting CaptchaSetting) map[string]interface{} {
	normalized := NormalizeCaptchaSetting(setting)
	out := map[string]interface{}{"enabled": normalized.Enabled}
	for scene, flag := range normalized.scenes() {
		out["scene_"+scene] = *flag
	}
	for _, bound := range captchaBounds {
		out[bound.key] = *bound.field(&normalized)
	}
	return out
}

// IsSceneEnabled 场景是否需要验证码，未知场景不校验
func (s CaptchaSetting) IsSceneEnabled(scene string) bool {
	flag, ok := s.scenes()[scene]
	return s.Enabled && ok && *flag
}

func captchaSettingFromJSON(raw models.JSON, fallback CaptchaSetting) CaptchaSetting {
	result := fallback
	if value, ok := raw["enabled"]; ok {
		result.Enabled = parseSettingBool(value)
	}
	for scene, flag := range result.scenes() {
		if value, ok := raw["scene_"+scene]; ok {
			*flag = parseSettingBool(value)
		}
	}
	for _, bound := range captchaBounds {
		value, ok := raw[bound.key]
		if !ok {
			continue
		}
		if parsed, err := parseSettingInt(value); err == nil {
			*bound.field(&result) = parsed
		}
	}
	return NormalizeCaptchaSetting(result)
}

// GetCaptchaSetting 获取验证码配置，未保存时使用启动配置
func (s *SettingService) GetCaptchaSetting(defaultCfg config.CaptchaConfig) (CaptchaSetting, error) {
	fallback := CaptchaDefaultSetting(defaultCfg)
	if s == nil {
		return fallback, nil
	}
	value, err := s.GetByKey(constants.SettingKeyCaptchaConfig)
	if err != nil || value == nil {
		return fallback, err
	}
	return captchaSettingFromJSON(value, fallback), nil
}

func clampInt(value, minValue, maxValue, fallback int) int {
	switch {
	case value == 0:
		return fallback
	case value < minValue:
		return minValue
	case value > maxValue:
		return maxValue
	}
	return value
}
