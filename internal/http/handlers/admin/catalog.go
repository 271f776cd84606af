package admin

import (
	"strings"

	handlershared "github.com/earnko/internal/http/handlers/shared"
	"github.com/earnko/internal/http/response"
	"github.com/earnko/internal/repository"
	"github.com/earnko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// StorePayload 商家请求体
type StorePayload struct {
	Name             string          `json:"name"`
	Host             string          `json:"host"`
	BaseURL          string          `json:"base_url"`
	AffiliateNetwork string          `json:"affiliate_network"`
	CampaignID       string          `json:"campaign_id"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionType   string          `json:"commission_type"`
	MaxCommission    decimal.Decimal `json:"max_commission"`
	CookieDuration   int             `json:"cookie_duration"`
	IsActive         *bool           `json:"is_active"`
}

func (p StorePayload) toInput() service.StoreInput {
	return service.StoreInput{
		Name:             p.Name,
		Host:             p.Host,
		BaseURL:          p.BaseURL,
		AffiliateNetwork: p.AffiliateNetwork,
		CampaignID:       p.CampaignID,
		CommissionRate:   p.CommissionRate,
		CommissionType:   p.CommissionType,
		MaxCommission:    p.MaxCommission,
		CookieDuration:   p.CookieDuration,
		IsActive:         p.IsActive,
	}
}

// ProductPayload 商品请求体
type ProductPayload struct {
	StoreID     uint   `json:"store_id"`
	Title       string `json:"title"`
	Deeplink    string `json:"deeplink"`
	CategoryKey string `json:"category_key"`
	Override    struct {
		Rate   decimal.Decimal `json:"rate"`
		Type   string          `json:"type"`
		MaxCap decimal.Decimal `json:"max_cap"`
	} `json:"commission_override"`
	IsActive *bool `json:"is_active"`
}

func (p ProductPayload) toInput() service.ProductInput {
	return service.ProductInput{
		StoreID:     p.StoreID,
		Title:       p.Title,
		Deeplink:    p.Deeplink,
		CategoryKey: p.CategoryKey,
		Override: service.CommissionOverrideInput{
			Rate:   p.Override.Rate,
			Type:   p.Override.Type,
			MaxCap: p.Override.MaxCap,
		},
		IsActive: p.IsActive,
	}
}

// ListStores 商家列表
func (h *Handler) ListStores(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	stores, total, err := h.CatalogService.ListStores(repository.StoreListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: c.Query("active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list stores failed", err)
		return
	}
	response.SuccessWithPage(c, stores, response.BuildPagination(page, pageSize, total))
}

// CreateStore 创建商家
func (h *Handler) CreateStore(c *gin.Context) {
	var req StorePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	store, err := h.CatalogService.CreateStore(req.toInput())
	if err != nil {
		respondCatalogError(c, err, "create store failed")
		return
	}
	response.Success(c, store)
}

// UpdateStore 更新商家
func (h *Handler) UpdateStore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req StorePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	store, err := h.CatalogService.UpdateStore(id, req.toInput())
	if err != nil {
		respondCatalogError(c, err, "update store failed")
		return
	}
	response.Success(c, store)
}

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	products, total, err := h.CatalogService.ListProducts(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		StoreID:  handlershared.ParseQueryUint(c, "store_id"),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list products failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	product, err := h.CatalogService.CreateProduct(req.toInput())
	if err != nil {
		respondCatalogError(c, err, "create product failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ProductPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	product, err := h.CatalogService.UpdateProduct(id, req.toInput())
	if err != nil {
		respondCatalogError(c, err, "update product failed")
		return
	}
	response.Success(c, product)
}
