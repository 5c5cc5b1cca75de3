package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/agd-funnel/internal/app"
	"github.com/agd-funnel/internal/config"
	"github.com/agd-funnel/internal/logger"
	"github.com/agd-funnel/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiBlue      = "\033[34m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	rawMode := flag.String("mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()
	mode, err := app.ParseMode(*rawMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	printStartupBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	release := cfg.Server.Mode == "release"

	secrets := map[string]string{
		"jwt":         cfg.JWT.SecretKey,
		"user_jwt":    cfg.UserJWT.SecretKey,
		"attribution": cfg.Attribution.CookieSecret,
	}
	if cfg.Pix.Enabled {
		secrets["pix_webhook"] = cfg.Pix.WebhookSecret
	}
	checkSecrets(stdLog, release, secrets)

	if err := initDatabase(cfg); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	ensureDefaultAdmin(stdLog, release)

	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

// initDatabase 连接数据库并迁移漏斗相关表
func initDatabase(cfg *config.Config) error {
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Server.Mode == "debug", models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ensureDefaultAdmin 首次启动时创建超级管理员，生产环境必须显式提供密码
func ensureDefaultAdmin(stdLog *log.Logger, release bool) {
	username := os.Getenv("AGD_DEFAULT_ADMIN_USERNAME")
	password := os.Getenv("AGD_DEFAULT_ADMIN_PASSWORD")
	if release && password == "" {
		stdLog.Printf("警告: 未设置 AGD_DEFAULT_ADMIN_PASSWORD，已跳过默认管理员初始化")
		return
	}
	if err := models.InitDefaultAdmin(username, password); err != nil {
		stdLog.Printf("警告: 初始化默认管理员失败: %v", err)
	}
}

// checkSecrets 生产环境拒绝弱密钥，其余环境仅告警
func checkSecrets(stdLog *log.Logger, release bool, secrets map[string]string) {
	for name, secret := range secrets {
		if !isWeakSecret(secret) {
			continue
		}
		if release {
			stdLog.Fatalf("%s secret 过弱或仍为默认值，请在生产环境中配置强随机密钥", name)
		}
		stdLog.Printf("警告: %s secret 过弱或仍为默认值，建议在生产环境中更换", name)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║              🚀 AGD Funnel API 启动中                    ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + " █████╗  ██████╗ ██████╗ " + ansiReset)
	fmt.Println(ansiCyan + "██╔══██╗██╔════╝ ██╔══██╗" + ansiReset)
	fmt.Println(ansiCyan + "███████║██║  ███╗██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + "██╔══██║██║   ██║██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + "██║  ██║╚██████╔╝██████╔╝" + ansiReset)
	fmt.Println(ansiCyan + "╚═╝  ╚═╝ ╚═════╝ ╚═════╝ " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Funnel · Affiliate · PIX" + ansiReset)
	fmt.Println(ansiBlue + "• Mode:    " + mode + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
