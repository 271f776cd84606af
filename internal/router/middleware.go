package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/earnko/internal/authz"
	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/repository"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey        = "request_id"
	requestIDHeader     = "X-Request-ID"
	adminRoleContextKey = "admin_role"
	maxRequestIDLength  = 64
	healthzPath         = "/healthz"
)

// 浏览器端需要读取的响应头
var corsExposeHeaders = []string{requestIDHeader, "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"}

type originPolicy struct {
	wildcard    bool
	credentials bool
	allowed     map[string]struct{}
}

func newOriginPolicy(origins []string, credentials bool) originPolicy {
	p := originPolicy{credentials: credentials, allowed: make(map[string]struct{}, len(origins))}
	if len(origins) == 0 {
		p.wildcard = true
	}
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			p.wildcard = true
			continue
		}
		if origin != "" {
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

// resolve 返回 Access-Control-Allow-Origin 的值，空串表示不放行
func (p originPolicy) resolve(origin string) string {
	if p.wildcard {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	if _, ok := p.allowed[strings.ToLower(strings.TrimRight(origin, "/"))]; ok {
		return origin
	}
	return ""
}

// CORSMiddleware 跨域中间件，服务前台发链接、看钱包的浏览器请求
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newOriginPolicy(cfg.AllowedOrigins, cfg.AllowCredentials)
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "Authorization", "Cache-Control", requestIDHeader}
	}
	methodsHeader := strings.Join(methods, ", ")
	headersHeader := strings.Join(headers, ", ")
	exposeHeader := strings.Join(corsExposeHeaders, ", ")

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if allowed := policy.resolve(c.GetHeader("Origin")); allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Expose-Headers", exposeHeader)
		}
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		h.Set("Access-Control-Allow-Headers", headersHeader)
		h.Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// 外部传入的请求 ID 仅接受短的可打印标识，防止日志注入
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || r == '.' || r == ':' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志，附带短链 slug、回传网络与调用方身份；健康检查只记 debug
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if slug := c.Param("slug"); slug != "" {
			fields = append(fields, "slug", slug)
		}
		if network := c.Param("network"); network != "" {
			fields = append(fields, "network", network)
		}
		if userID := c.GetUint("user_id"); userID > 0 {
			fields = append(fields, "user_id", userID)
		}
		if adminID := c.GetUint("admin_id"); adminID > 0 {
			fields = append(fields, "admin_id", adminID)
		}

		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("request", append(fields, "errors", c.Errors.String())...)
		case c.Request.URL.Path == healthzPath:
			sugar.Debugw("request", fields...)
		default:
			sugar.Infow("request", fields...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// bearerToken 读取 Authorization: Bearer <token>，失败时已写入响应
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Abort(c, response.CodeUnauthorized, "authorization header missing")
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") || strings.TrimSpace(parts[1]) == "" {
		response.Abort(c, response.CodeUnauthorized, "authorization header invalid")
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// JWTAuthMiddleware 管理员 JWT 鉴权中间件
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" || adminRepo == nil {
			response.Abort(c, response.CodeUnauthorized, "admin authentication unavailable")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}
		claims, err := service.ParseAdminToken(tokenString, secretKey)
		if err != nil {
			response.Abort(c, response.CodeUnauthorized, "token invalid")
			return
		}
		admin, err := adminRepo.GetByID(claims.AdminID)
		if err != nil || admin == nil {
			response.Abort(c, response.CodeUnauthorized, "token invalid")
			return
		}

		c.Set("admin_id", admin.ID)
		c.Set("username", admin.Username)
		c.Set(adminRoleContextKey, admin.Role)
		c.Next()
	}
}

// AdminRBACMiddleware 管理端 RBAC 鉴权中间件，资源取路由模板
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			response.Abort(c, response.CodeUnauthorized, "unauthorized")
			return
		}

		adminID := c.GetUint("admin_id")
		if adminID == 0 {
			response.Abort(c, response.CodeUnauthorized, "unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Abort(c, response.CodeUnauthorized, "unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"role", c.GetString(adminRoleContextKey),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Abort(c, response.CodeForbidden, "permission denied")
			return
		}

		c.Next()
	}
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件
func UserJWTAuthMiddleware(cfg config.JWTConfig, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.SecretKey == "" || userRepo == nil {
			response.Abort(c, response.CodeUnauthorized, "user authentication unavailable")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}
		claims, err := service.ParseUserToken(tokenString, cfg.SecretKey, cfg.Audience)
		if err != nil {
			response.Abort(c, response.CodeUnauthorized, "token invalid")
			return
		}

		user, err := userRepo.GetByID(claims.UserID)
		if err != nil || user == nil {
			response.Abort(c, response.CodeUnauthorized, "token invalid")
			return
		}
		if !isActiveUserStatus(user.Status) {
			response.Abort(c, response.CodeForbidden, "user disabled")
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

func isActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}
