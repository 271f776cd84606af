package config

import (
	"fmt"
	"strings"

	"github.com/earnko/internal/logger"

	"github.com/joho/godotenv"
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
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Links       LinksConfig       `mapstructure:"links"`
	URLResolver URLResolverConfig `mapstructure:"url_resolver"`
	Networks    NetworksConfig    `mapstructure:"networks"`
	Referral    ReferralConfig    `mapstructure:"referral"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Admin       AdminConfig       `mapstructure:"admin"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release

	ReadHeaderTimeoutSeconds int `mapstructure:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds      int `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds       int `mapstructure:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds   int `mapstructure:"shutdown_timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
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
	// Audience 非空时校验 aud；用户令牌可能由上游签发，默认不校验
	Audience string `mapstructure:"audience"`
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

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	LinkWindowSeconds  int `mapstructure:"link_window_seconds"`
	LinkMaxRequests    int `mapstructure:"link_max_requests"`
	LoginWindowSeconds int `mapstructure:"login_window_seconds"`
	LoginMaxRequests   int `mapstructure:"login_max_requests"`
}

// LinksConfig 推广链接配置
type LinksConfig struct {
	PublicBaseURL     string `mapstructure:"public_base_url"` // 分享链接前缀，如 https://go.example.com
	DefaultMode       string `mapstructure:"default_mode"`    // eager / lazy
	FallbackURL       string `mapstructure:"fallback_url"`    // 跳转失败兜底地址
	CookieName        string `mapstructure:"cookie_name"`     // 归因 cookie 名
	DefaultCookieDays int    `mapstructure:"default_cookie_days"`
	BulkMax           int    `mapstructure:"bulk_max"`
	CacheTTLSeconds   int    `mapstructure:"cache_ttl_seconds"` // slug 缓存
}

// URLResolverConfig 短链展开配置
type URLResolverConfig struct {
	MaxHops           int  `mapstructure:"max_hops"`
	HopTimeoutMS      int  `mapstructure:"hop_timeout_ms"`
	CacheTTLSeconds   int  `mapstructure:"cache_ttl_seconds"`
	DisableResolution bool `mapstructure:"disable_resolution"`
}

// NetworkRoute 域名到联盟网络的路由
type NetworkRoute struct {
	Host       string `mapstructure:"host"`
	Provider   string `mapstructure:"provider"`
	CampaignID string `mapstructure:"campaign_id"`
}

// NetworksConfig 联盟网络配置
type NetworksConfig struct {
	DefaultProvider string         `mapstructure:"default_provider"`
	Routes          []NetworkRoute `mapstructure:"routes"`
	Cuelinks        CuelinksConfig `mapstructure:"cuelinks"`
	Trackier        TrackierConfig `mapstructure:"trackier"`
	Extrape         ExtrapeConfig  `mapstructure:"extrape"`
}

// CuelinksConfig Cuelinks 配置
type CuelinksConfig struct {
	APIBase   string `mapstructure:"api_base"`
	APIKey    string `mapstructure:"api_key"`
	ChannelID string `mapstructure:"channel_id"`
	CountryID string `mapstructure:"country_id"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// TrackierConfig Trackier / vCommission 配置
type TrackierConfig struct {
	APIBase   string `mapstructure:"api_base"`
	APIKey    string `mapstructure:"api_key"`
	EncodeURL bool   `mapstructure:"encode_url"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// ExtrapeConfig Extrape 配置
type ExtrapeConfig struct {
	AffID        string `mapstructure:"affid"`
	AffExtParam1 string `mapstructure:"aff_ext_param1"`
}

// ReferralConfig 邀请奖励默认配置
type ReferralConfig struct {
	BonusType  string  `mapstructure:"bonus_type"` // percentage / fixed
	BonusValue float64 `mapstructure:"bonus_value"`
	BonusCap   float64 `mapstructure:"bonus_cap"` // 0 表示不封顶
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	Telegram TelegramNotifyConfig `mapstructure:"telegram"`
	Kafka    KafkaNotifyConfig    `mapstructure:"kafka"`
}

// TelegramNotifyConfig Telegram 运维告警
type TelegramNotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	MinLevel string `mapstructure:"min_level"`
}

// KafkaNotifyConfig Kafka 领域事件
type KafkaNotifyConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
}

// WebhookConfig 回调巡检配置
type WebhookConfig struct {
	StaleAfterSeconds    int `mapstructure:"stale_after_seconds"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

// AdminConfig 首个超级管理员，仅在 admins 表为空时写入
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load 加载 .env + config.yml + 环境变量
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debugw("dotenv_not_loaded", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("./etc")

	setDefaults(viper.GetViper())

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_header_timeout_seconds", 5)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "earnko.log")
	v.SetDefault("log.level", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/earnko.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "admin-change-me-in-production")
	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 168)
	v.SetDefault("user_jwt.audience", "")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ek")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("rate_limit.link_window_seconds", 60)
	v.SetDefault("rate_limit.link_max_requests", 30)
	v.SetDefault("rate_limit.login_window_seconds", 300)
	v.SetDefault("rate_limit.login_max_requests", 5)
	v.SetDefault("links.public_base_url", "http://localhost:8080")
	v.SetDefault("links.default_mode", "lazy")
	v.SetDefault("links.fallback_url", "http://localhost:3000")
	v.SetDefault("links.cookie_name", "ek_click")
	v.SetDefault("links.default_cookie_days", 30)
	v.SetDefault("links.bulk_max", 25)
	v.SetDefault("links.cache_ttl_seconds", 300)
	v.SetDefault("url_resolver.max_hops", 8)
	v.SetDefault("url_resolver.hop_timeout_ms", 8000)
	v.SetDefault("url_resolver.cache_ttl_seconds", 3600)
	v.SetDefault("url_resolver.disable_resolution", false)
	v.SetDefault("networks.default_provider", "cuelinks")
	v.SetDefault("networks.routes", []map[string]interface{}{
		{"host": "flipkart.com", "provider": "extrape"},
		{"host": "dl.flipkart.com", "provider": "extrape"},
	})
	v.SetDefault("networks.cuelinks.api_base", "https://www.cuelinks.com/api/v2")
	v.SetDefault("networks.cuelinks.api_key", "")
	v.SetDefault("networks.cuelinks.channel_id", "")
	v.SetDefault("networks.cuelinks.country_id", "")
	v.SetDefault("networks.cuelinks.timeout_ms", 8000)
	v.SetDefault("networks.trackier.api_base", "https://api.trackier.com")
	v.SetDefault("networks.trackier.api_key", "")
	v.SetDefault("networks.trackier.encode_url", false)
	v.SetDefault("networks.trackier.timeout_ms", 8000)
	v.SetDefault("networks.extrape.affid", "")
	v.SetDefault("networks.extrape.aff_ext_param1", "")
	v.SetDefault("referral.bonus_type", "percentage")
	v.SetDefault("referral.bonus_value", 10)
	v.SetDefault("referral.bonus_cap", 0)
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("notify.telegram.min_level", "warn")
	v.SetDefault("notify.kafka.enabled", false)
	v.SetDefault("notify.kafka.brokers", []string{})
	v.SetDefault("notify.kafka.topics", map[string]string{
		"conversion.recorded":        "earnko.conversions",
		"transaction.status_changed": "earnko.transactions",
	})
	v.SetDefault("webhook.stale_after_seconds", 600)
	v.SetDefault("webhook.sweep_interval_seconds", 60)
	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
}
