package admin

import (
	handlershared "github.com/earnko/internal/http/handlers/shared"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/repository"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CategoryCommissionPayload 分类佣金规则请求体；store_id 为空表示全局规则
type CategoryCommissionPayload struct {
	StoreID        *uint           `json:"store_id"`
	CategoryKey    string          `json:"category_key"`
	Label          string          `json:"label"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	CommissionType string          `json:"commission_type"`
	MaxCap         decimal.Decimal `json:"max_cap"`
	IsActive       *bool           `json:"is_active"`
}

func (p CategoryCommissionPayload) toInput() service.CategoryCommissionInput {
	return service.CategoryCommissionInput{
		StoreID:        p.StoreID,
		CategoryKey:    p.CategoryKey,
		Label:          p.Label,
		CommissionRate: p.CommissionRate,
		CommissionType: p.CommissionType,
		MaxCap:         p.MaxCap,
		IsActive:       p.IsActive,
	}
}

// ListCategoryCommissions 规则列表
func (h *Handler) ListCategoryCommissions(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	rules, total, err := h.CategoryRuleService.List(repository.CategoryCommissionListFilter{
		Page:       page,
		PageSize:   pageSize,
		StoreID:    handlershared.ParseQueryUint(c, "store_id"),
		GlobalOnly: c.Query("global") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list commission rules failed", err)
		return
	}
	response.SuccessWithPage(c, rules, response.BuildPagination(page, pageSize, total))
}

// CreateCategoryCommission 新建规则
func (h *Handler) CreateCategoryCommission(c *gin.Context) {
	var req CategoryCommissionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	rule, err := h.CategoryRuleService.Create(req.toInput())
	if err != nil {
		respondCatalogError(c, err, "create commission rule failed")
		return
	}
	response.Success(c, rule)
}

// UpdateCategoryCommission 更新规则
func (h *Handler) UpdateCategoryCommission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CategoryCommissionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	rule, err := h.CategoryRuleService.Update(id, req.toInput())
	if err != nil {
		respondCatalogError(c, err, "update commission rule failed")
		return
	}
	response.Success(c, rule)
}

// DeleteCategoryCommission 删除规则
func (h *Handler) DeleteCategoryCommission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.CategoryRuleService.Delete(id); err != nil {
		respondCatalogError(c, err, "delete commission rule failed")
		return
	}
	response.Success(c, gin.H{"id": id})
}
