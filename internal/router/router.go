package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/earnko/internal/cache"
	"github.com/earnko/internal/config"
	adminhandlers "github.com/earnko/internal/http/handlers/admin"
	publichandlers "github.com/earnko/internal/http/handlers/public"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/provider"

	"github.com/gin-gonic/gin"
)

const (
	defaultLinkWindowSeconds  = 60
	defaultLinkMaxRequests    = 30
	defaultLoginWindowSeconds = 300
	defaultLoginMaxRequests   = 10
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ek"
	}
	redisClient := cache.Client()
	linkRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:links", redisPrefix),
		WindowSeconds: positiveOr(cfg.RateLimit.LinkWindowSeconds, defaultLinkWindowSeconds),
		MaxRequests:   positiveOr(cfg.RateLimit.LinkMaxRequests, defaultLinkMaxRequests),
		Message:       "too many link requests, please retry later",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: positiveOr(cfg.RateLimit.LoginWindowSeconds, defaultLoginWindowSeconds),
		MaxRequests:   positiveOr(cfg.RateLimit.LoginMaxRequests, defaultLoginMaxRequests),
		Message:       "too many login attempts, please retry later",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET(healthzPath, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 分享链接跳转
	r.GET("/r/:slug", publicHandler.Redirect)

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "route not found")
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 联盟网络回传
		apiV1.GET("/webhooks/:network", publicHandler.HandleWebhook)
		apiV1.POST("/webhooks/:network", publicHandler.HandleWebhook)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT, c.UserRepo))
		{
			limited := RateLimitMiddleware(redisClient, linkRule, KeyByUser)
			user.POST("/links", limited, publicHandler.IssueLink)
			user.POST("/links/bulk", limited, publicHandler.IssueLinks)
			user.GET("/links", publicHandler.ListLinks)
			user.GET("/me/wallet", publicHandler.GetMyWallet)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 权限
				authorized.GET("/authz/me", adminHandler.GetMyPermissions)
				authorized.GET("/authz/roles", adminHandler.ListBuiltinRoles)

				// 商家与商品
				authorized.GET("/stores", adminHandler.ListStores)
				authorized.POST("/stores", adminHandler.CreateStore)
				authorized.PUT("/stores/:id", adminHandler.UpdateStore)
				authorized.GET("/products", adminHandler.ListProducts)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)

				// 分类佣金规则
				authorized.GET("/category-commissions", adminHandler.ListCategoryCommissions)
				authorized.POST("/category-commissions", adminHandler.CreateCategoryCommission)
				authorized.PUT("/category-commissions/:id", adminHandler.UpdateCategoryCommission)
				authorized.DELETE("/category-commissions/:id", adminHandler.DeleteCategoryCommission)

				// 交易与佣金
				authorized.GET("/transactions", adminHandler.ListTransactions)
				authorized.PATCH("/transactions/:id/status", adminHandler.UpdateTransactionStatus)
				authorized.POST("/transactions/:id/commission", adminHandler.ProcessCommission)

				// 回传审计
				authorized.GET("/webhook-events", adminHandler.ListWebhookEvents)

				// 设置
				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.UpdateSetting)
			}
		}
	}

	return r
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
