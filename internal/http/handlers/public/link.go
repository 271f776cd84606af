package public

import (
	"errors"
	"strings"

	handlershared "github.com/earnko/internal/http/handlers/shared"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/repository"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueLinkRequest 签发链接请求
type IssueLinkRequest struct {
	URL       string `json:"url"`
	StoreID   *uint  `json:"store_id"`
	ProductID *uint  `json:"product_id"`
	Mode      string `json:"mode"`
}

// BulkIssueLinkRequest 批量签发请求
type BulkIssueLinkRequest struct {
	URLs []string `json:"urls"`
	Mode string   `json:"mode"`
}

// IssueLink 为当前用户签发一条分享链接
func (h *Handler) IssueLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.URL) == "" && req.ProductID == nil {
		respondError(c, response.CodeBadRequest, "url is required", nil)
		return
	}
	result, err := h.LinkService.IssueLink(c.Request.Context(), service.IssueLinkInput{
		UserID:    userID,
		RawURL:    req.URL,
		StoreID:   req.StoreID,
		ProductID: req.ProductID,
		Mode:      req.Mode,
	})
	if err != nil {
		respondLinkError(c, err)
		return
	}
	response.Success(c, result)
}

// IssueLinks 批量签发，每条结果独立成功或失败
func (h *Handler) IssueLinks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req BulkIssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	results, err := h.LinkService.IssueLinks(c.Request.Context(), userID, req.URLs, req.Mode)
	if err != nil {
		if errors.Is(err, service.ErrBadRequest) {
			respondError(c, response.CodeBadRequest, "urls is required", nil)
			return
		}
		respondError(c, response.CodeInternal, "bulk issue failed", err)
		return
	}
	succeeded := 0
	for _, item := range results {
		if item.Success {
			succeeded++
		}
	}
	response.Success(c, gin.H{
		"items":     results,
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// ListLinks 当前用户的分享链接
func (h *Handler) ListLinks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	links, total, err := h.LinkService.ListLinks(repository.LinkListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list links failed", err)
		return
	}
	response.SuccessWithPage(c, links, response.BuildPagination(page, pageSize, total))
}
