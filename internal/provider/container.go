package provider

import (
	"time"

	"github.com/earnko/internal/authz"
	"github.com/earnko/internal/cache"
	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/network"
	"github.com/earnko/internal/network/cuelinks"
	"github.com/earnko/internal/network/extrape"
	"github.com/earnko/internal/network/trackier"
	"github.com/earnko/internal/notify"
	"github.com/earnko/internal/queue"
	"github.com/earnko/internal/repository"
	"github.com/earnko/internal/service"
	"github.com/earnko/internal/urlnorm"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// DeliveryNotifier 直接投递（日志 + Telegram + Kafka）；Notifier 在队列启用时先入队
	DeliveryNotifier notify.Notifier
	Notifier         notify.Notifier
	closers          []func() error

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	StoreRepo          repository.StoreRepository
	ProductRepo        repository.ProductRepository
	CategoryRuleRepo   repository.CategoryCommissionRepository
	LinkRepo           repository.LinkRepository
	ClickRepo          repository.ClickRepository
	TransactionRepo    repository.TransactionRepository
	CommissionRepo     repository.CommissionRepository
	WebhookEventRepo   repository.WebhookEventRepository
	ReferralRewardRepo repository.ReferralRewardRepository
	SettingRepo        repository.SettingRepository

	// Networks
	Registry       *network.Registry
	ProviderRouter *service.ProviderRouter
	Resolver       *urlnorm.Resolver

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	SettingService      *service.SettingService
	WalletService       *service.WalletService
	ClickService        *service.ClickService
	CommissionService   *service.CommissionService
	ReferralService     *service.ReferralService
	WebhookService      *service.WebhookService
	LinkService         *service.LinkService
	CategoryRuleService *service.CategoryCommissionService
	CatalogService      *service.CatalogService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initNotifiers()
	c.initRepositories(models.DB)
	c.initNetworks()
	c.initServices()
	return c
}

// Close 释放外部连接
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			logger.Warnw("provider_close_failed", "error", err)
		}
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func (c *Container) initNotifiers() {
	sinks := notify.Multi{notify.LogNotifier{}}

	tg := c.Config.Notify.Telegram
	if tg.Enabled {
		n, err := notify.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.MinLevel)
		if err != nil {
			logger.Errorw("provider_init_telegram_failed", "error", err)
		} else {
			sinks = append(sinks, n)
		}
	}

	kc := c.Config.Notify.Kafka
	if kc.Enabled {
		n, err := notify.NewKafkaNotifier(kc.Brokers, kc.Topics)
		if err != nil {
			logger.Errorw("provider_init_kafka_failed", "error", err)
		} else {
			sinks = append(sinks, n)
			c.closers = append(c.closers, n.Close)
		}
	}

	c.DeliveryNotifier = sinks
	c.Notifier = queue.NewNotifier(c.QueueClient, sinks)
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.StoreRepo = repository.NewStoreRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRuleRepo = repository.NewCategoryCommissionRepository(db)
	c.LinkRepo = repository.NewLinkRepository(db)
	c.ClickRepo = repository.NewClickRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.WebhookEventRepo = repository.NewWebhookEventRepository(db)
	c.ReferralRewardRepo = repository.NewReferralRewardRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initNetworks() {
	nc := c.Config.Networks
	c.Registry = network.NewRegistry(
		cuelinks.New(cuelinks.Options{
			APIBase:   nc.Cuelinks.APIBase,
			APIKey:    nc.Cuelinks.APIKey,
			ChannelID: nc.Cuelinks.ChannelID,
			CountryID: nc.Cuelinks.CountryID,
			Timeout:   millis(nc.Cuelinks.TimeoutMS),
		}),
		trackier.New(trackier.Options{
			APIBase:   nc.Trackier.APIBase,
			APIKey:    nc.Trackier.APIKey,
			EncodeURL: nc.Trackier.EncodeURL,
			Timeout:   millis(nc.Trackier.TimeoutMS),
		}),
		extrape.New(extrape.Options{
			AffID:        nc.Extrape.AffID,
			AffExtParam1: nc.Extrape.AffExtParam1,
		}),
	)
	// vCommission 的活动通过 Trackier 接口生成
	c.Registry.Register(constants.NetworkVcommission, trackier.New(trackier.Options{
		Name:      constants.NetworkVcommission,
		APIBase:   nc.Trackier.APIBase,
		APIKey:    nc.Trackier.APIKey,
		EncodeURL: nc.Trackier.EncodeURL,
		Timeout:   millis(nc.Trackier.TimeoutMS),
	}))

	c.ProviderRouter = service.NewProviderRouter(nc, c.Notifier)

	rc := c.Config.URLResolver
	c.Resolver = urlnorm.NewResolver(urlnorm.ResolverOptions{
		MaxHops:    rc.MaxHops,
		HopTimeout: millis(rc.HopTimeoutMS),
		Disabled:   rc.DisableResolution,
		Cache:      cache.NewResolveCache(time.Duration(rc.CacheTTLSeconds) * time.Second),
	})
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.syncAdminRoles()

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.WalletService = service.NewWalletService(c.UserRepo)
	c.ClickService = service.NewClickService(c.ClickRepo, c.ProductRepo)
	c.CommissionService = service.NewCommissionService(
		c.TransactionRepo,
		c.CommissionRepo,
		c.StoreRepo,
		c.ProductRepo,
		c.CategoryRuleRepo,
		c.LinkRepo,
		c.ClickService,
		c.WalletService,
	)
	c.ReferralService = service.NewReferralService(
		c.Config.Referral,
		c.ReferralRewardRepo,
		c.UserRepo,
		c.SettingService,
		c.WalletService,
	)
	c.WebhookService = service.NewWebhookService(
		c.WebhookEventRepo,
		c.TransactionRepo,
		c.ClickService,
		c.CommissionService,
		c.WalletService,
		c.ReferralService,
		c.Notifier,
	)
	c.LinkService = service.NewLinkService(service.LinkServiceDeps{
		Config:         c.Config.Links,
		LinkRepo:       c.LinkRepo,
		StoreRepo:      c.StoreRepo,
		ProductRepo:    c.ProductRepo,
		Clicks:         c.ClickService,
		Router:         c.ProviderRouter,
		Registry:       c.Registry,
		Resolver:       c.Resolver,
		Notifier:       c.Notifier,
		AdapterTimeout: millis(c.Config.Networks.Cuelinks.TimeoutMS),
	})
	c.CategoryRuleService = service.NewCategoryCommissionService(c.CategoryRuleRepo, c.StoreRepo)
	c.CatalogService = service.NewCatalogService(c.StoreRepo, c.ProductRepo)
}

// syncAdminRoles 把 admins.role 同步为 casbin 分组
func (c *Container) syncAdminRoles() {
	admins, err := c.AdminRepo.List()
	if err != nil {
		logger.Warnw("provider_list_admins_failed", "error", err)
		return
	}
	for _, admin := range admins {
		if err := c.AuthzService.AssignAdminRole(admin.ID, admin.Role); err != nil {
			logger.Warnw("provider_sync_admin_role_failed", "admin_id", admin.ID, "role", admin.Role, "error", err)
		}
	}
}

func millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
