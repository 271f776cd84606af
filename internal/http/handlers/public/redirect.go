package public

import (
	"net/http"

	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
)

// Redirect 分享链接跳转，任何失败都以 302 结束
func (h *Handler) Redirect(c *gin.Context) {
	result := h.LinkService.Redirect(c.Request.Context(), service.RedirectInput{
		Slug:      c.Param("slug"),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})
	if result.ClickID != "" && result.CookieName != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(result.CookieName, result.ClickID, result.CookieMaxAge, "/", "", c.Request.TLS != nil, true)
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, result.Location)
}
