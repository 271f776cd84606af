package admin

import (
	"strings"

	handlershared "github.com/earnko/internal/http/handlers/shared"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListWebhookEvents 回传审计事件
func (h *Handler) ListWebhookEvents(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	events, total, err := h.WebhookService.ListEvents(repository.WebhookEventListFilter{
		Page:     page,
		PageSize: pageSize,
		Source:   strings.ToLower(strings.TrimSpace(c.Query("source"))),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list webhook events failed", err)
		return
	}
	response.SuccessWithPage(c, events, response.BuildPagination(page, pageSize, total))
}
