package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/earnko/internal/app"
	"github.com/earnko/internal/config"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	printStartupBanner()

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	// 加载配置
	cfg := config.Load()
	logOpts := cfg.Log.ToLoggerOptions()
	logOpts.Fields = map[string]string{"app": "earnko", "run_mode": mode, "instance": hostname()}
	logger.Init(cfg.Server.Mode, logOpts)
	stdLog := logger.StdLogger()

	checkSecret(cfg.Server.Mode, "jwt", cfg.JWT.SecretKey)
	checkSecret(cfg.Server.Mode, "user_jwt", cfg.UserJWT.SecretKey)

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug"); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 首个管理员
	if cfg.Server.Mode == "release" && strings.TrimSpace(cfg.Admin.Password) == "" {
		stdLog.Printf("警告: 未设置 admin.password，已跳过默认管理员初始化")
	} else if err := models.InitDefaultAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		stdLog.Printf("警告: 初始化默认管理员失败: %v", err)
	}

	if cfg.Server.Mode == "release" {
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

func checkSecret(mode, name, secret string) {
	if !isWeakSecret(secret) {
		return
	}
	if mode == "release" {
		logger.StdLogger().Fatalf("%s secret 过弱或仍为默认值，请在生产环境中配置强随机密钥", name)
	}
	logger.StdLogger().Printf("警告: %s secret 过弱或仍为默认值，建议在生产环境中更换", name)
}

func printStartupBanner() {
	fmt.Println(ansiBrightMag + "╔════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║              EarnKo API 启动中                 ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + "███████╗ █████╗ ██████╗ ███╗   ██╗██╗  ██╗ ██████╗ " + ansiReset)
	fmt.Println(ansiCyan + "██╔════╝██╔══██╗██╔══██╗████╗  ██║██║ ██╔╝██╔═══██╗" + ansiReset)
	fmt.Println(ansiCyan + "█████╗  ███████║██████╔╝██╔██╗ ██║█████╔╝ ██║   ██║" + ansiReset)
	fmt.Println(ansiCyan + "██╔══╝  ██╔══██║██╔══██╗██║╚██╗██║██╔═██╗ ██║   ██║" + ansiReset)
	fmt.Println(ansiCyan + "███████╗██║  ██║██║  ██║██║ ╚████║██║  ██╗╚██████╔╝" + ansiReset)
	fmt.Println(ansiCyan + "╚══════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝ ╚═════╝ " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Affiliate links · postbacks · commissions" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
