package config

import (
	"fmt"
	"strings"

	"github.com/agd-funnel/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	UserJWT     JWTConfig         `mapstructure:"user_jwt"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Queue       QueueConfig       `mapstructure:"queue"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Security    SecurityConfig    `mapstructure:"security"`
	Funnel      FunnelConfig      `mapstructure:"funnel"`
	Attribution AttributionConfig `mapstructure:"attribution"`
	Commission  CommissionConfig  `mapstructure:"commission"`
	Pix         PixConfig         `mapstructure:"pix"`
	Events      EventsConfig      `mapstructure:"events"`
	Captcha     CaptchaConfig     `mapstructure:"captcha"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                     string `mapstructure:"host"`
	Port                     string `mapstructure:"port"`
	Mode                     string `mapstructure:"mode"`            // debug / release
	PublicBaseURL            string `mapstructure:"public_base_url"` // 推广链接对外域名
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	WriteTimeoutSeconds      int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds       int    `mapstructure:"idle_timeout_seconds"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit  RateLimitConfig      `mapstructure:"login_rate_limit"`
	FunnelRateLimit RateLimitConfig      `mapstructure:"funnel_rate_limit"`
	PasswordPolicy  PasswordPolicyConfig `mapstructure:"password_policy"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// PasswordPolicyConfig 密码策略配置
type PasswordPolicyConfig struct {
	MinLength     int  `mapstructure:"min_length"`
	RequireUpper  bool `mapstructure:"require_upper"`
	RequireLower  bool `mapstructure:"require_lower"`
	RequireNumber bool `mapstructure:"require_number"`
}

// FunnelConfig 漏斗会话配置
type FunnelConfig struct {
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes"`
	SessionHeader     string `mapstructure:"session_header"`
}

// AttributionConfig 推广归因配置
type AttributionConfig struct {
	CookieName          string `mapstructure:"cookie_name"`
	VisitorCookieName   string `mapstructure:"visitor_cookie_name"`
	CookieDomain        string `mapstructure:"cookie_domain"`
	CookieSecure        bool   `mapstructure:"cookie_secure"`
	CookieSecret        string `mapstructure:"cookie_secret"`
	TTLHours            int    `mapstructure:"ttl_hours"`
	ClickDedupeMinutes  int    `mapstructure:"click_dedupe_minutes"`
	PurgeIntervalMinute int    `mapstructure:"purge_interval_minutes"`
}

// CommissionConfig 佣金默认配置（运行时可通过设置覆盖）
type CommissionConfig struct {
	LeaderRatePercent   float64 `mapstructure:"leader_rate_percent"`
	EarlyPenaltyPercent float64 `mapstructure:"early_penalty_percent"`
}

// PixConfig PIX 网关配置
type PixConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	GatewayURL     string `mapstructure:"gateway_url"`
	APIToken       string `mapstructure:"api_token"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	NotifyURL      string `mapstructure:"notify_url"`
	ExpireMinutes  int    `mapstructure:"expire_minutes"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EventsConfig 业务事件投递配置
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"` // 键为事件类型（点号替换为下划线）
}

// CaptchaConfig 图片验证码配置
type CaptchaConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Length        int  `mapstructure:"length"`
	Width         int  `mapstructure:"width"`
	Height        int  `mapstructure:"height"`
	NoiseCount    int  `mapstructure:"noise_count"`
	ExpireSeconds int  `mapstructure:"expire_seconds"`
	MaxStore      int  `mapstructure:"max_store"`
}

// Validate 校验配置的业务约束
func (c *Config) Validate() error {
	if c.Commission.LeaderRatePercent < 0 {
		return fmt.Errorf("commission.leader_rate_percent must not be negative")
	}
	if c.Commission.EarlyPenaltyPercent < 0 || c.Commission.EarlyPenaltyPercent >= 100 {
		return fmt.Errorf("commission.early_penalty_percent must be in [0, 100)")
	}
	if c.Attribution.TTLHours <= 0 {
		return fmt.Errorf("attribution.ttl_hours must be positive")
	}
	if strings.TrimSpace(c.Attribution.CookieSecret) == "" {
		return fmt.Errorf("attribution.cookie_secret is required")
	}
	if c.Pix.Enabled && strings.TrimSpace(c.Pix.GatewayURL) == "" {
		return fmt.Errorf("pix.gateway_url is required when pix is enabled")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required when events are enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.public_base_url", "")
	v.SetDefault("server.read_header_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 120)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "funnel.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/agd.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 72)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "agd")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Authorization",
		"Accept-Language",
		"X-Locale",
		"X-Funnel-Session",
		"X-Requested-With",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)
	v.SetDefault("security.login_rate_limit.block_seconds", 900)
	v.SetDefault("security.funnel_rate_limit.window_seconds", 60)
	v.SetDefault("security.funnel_rate_limit.max_attempts", 30)
	v.SetDefault("security.funnel_rate_limit.block_seconds", 120)
	v.SetDefault("security.password_policy.min_length", 8)
	v.SetDefault("security.password_policy.require_upper", false)
	v.SetDefault("security.password_policy.require_lower", true)
	v.SetDefault("security.password_policy.require_number", true)
	v.SetDefault("funnel.session_ttl_minutes", 1440)
	v.SetDefault("funnel.session_header", "X-Funnel-Session")
	v.SetDefault("attribution.cookie_name", "agd_ref")
	v.SetDefault("attribution.visitor_cookie_name", "agd_vid")
	v.SetDefault("attribution.cookie_domain", "")
	v.SetDefault("attribution.cookie_secure", false)
	v.SetDefault("attribution.cookie_secret", "attribution-change-me-in-production")
	v.SetDefault("attribution.ttl_hours", 48)
	v.SetDefault("attribution.click_dedupe_minutes", 10)
	v.SetDefault("attribution.purge_interval_minutes", 30)
	v.SetDefault("commission.leader_rate_percent", 3)
	v.SetDefault("commission.early_penalty_percent", 10)
	v.SetDefault("pix.enabled", false)
	v.SetDefault("pix.gateway_url", "")
	v.SetDefault("pix.api_token", "")
	v.SetDefault("pix.webhook_secret", "")
	v.SetDefault("pix.notify_url", "")
	v.SetDefault("pix.expire_minutes", 30)
	v.SetDefault("pix.timeout_seconds", 10)
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topics", map[string]string{
		"lead_submitted":  "agd.funnel.lead-submitted",
		"sale_confirmed":  "agd.sales.sale-confirmed",
		"affiliate_click": "agd.affiliate.click",
	})
	v.SetDefault("captcha.enabled", false)
	v.SetDefault("captcha.length", 5)
	v.SetDefault("captcha.width", 240)
	v.SetDefault("captcha.height", 80)
	v.SetDefault("captcha.noise_count", 2)
	v.SetDefault("captcha.expire_seconds", 300)
	v.SetDefault("captcha.max_store", 10240)
}

// Load 从 config.yml 加载配置
func Load() *Config {
	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")   // 从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹
	setDefaults(v)

	// 环境变量支持（例如 server.port -> SERVER_PORT）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorw("config_validate_failed", "error", err)
		panic(err)
	}
	return &cfg
}

// Defaults 返回仅包含默认值的配置（测试与种子命令使用）
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("config defaults unmarshal failed: %w", err))
	}
	return &cfg
}
