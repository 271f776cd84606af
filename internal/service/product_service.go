package service

import (
	"fmt"
	"strings"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"
	"github.com/earnko/internal/urlnorm"

	"github.com/shopspring/decimal"
)

// CatalogService 商家与商品管理
type CatalogService struct {
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
}

// NewCatalogService 创建商家/商品服务
func NewCatalogService(storeRepo repository.StoreRepository, productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{storeRepo: storeRepo, productRepo: productRepo}
}

// StoreInput 创建/更新商家输入
type StoreInput struct {
	Name             string
	Host             string
	BaseURL          string
	AffiliateNetwork string
	CampaignID       string
	CommissionRate   decimal.Decimal
	CommissionType   string
	MaxCommission    decimal.Decimal
	CookieDuration   int
	IsActive         *bool
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	StoreID     uint
	Title       string
	Deeplink    string
	CategoryKey string
	Override    CommissionOverrideInput
	IsActive    *bool
}

// CommissionOverrideInput 商品级佣金覆盖；Type 为空表示不覆盖
type CommissionOverrideInput struct {
	Rate   decimal.Decimal
	Type   string
	MaxCap decimal.Decimal
}

// ListStores 商家列表
func (s *CatalogService) ListStores(filter repository.StoreListFilter) ([]models.Store, int64, error) {
	return s.storeRepo.List(filter)
}

// CreateStore 创建商家
func (s *CatalogService) CreateStore(input StoreInput) (*models.Store, error) {
	if err := normalizeStoreInput(&input); err != nil {
		return nil, err
	}
	store := &models.Store{IsActive: true}
	applyStoreInput(store, input)
	if err := s.storeRepo.Create(store); err != nil {
		return nil, err
	}
	if !store.IsActive {
		if err := s.storeRepo.Update(store); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// UpdateStore 更新商家
func (s *CatalogService) UpdateStore(id uint, input StoreInput) (*models.Store, error) {
	store, err := s.storeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	if err := normalizeStoreInput(&input); err != nil {
		return nil, err
	}
	applyStoreInput(store, input)
	if err := s.storeRepo.Update(store); err != nil {
		return nil, err
	}
	return store, nil
}

// ListProducts 商品列表
func (s *CatalogService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// CreateProduct 创建商品
func (s *CatalogService) CreateProduct(input ProductInput) (*models.Product, error) {
	if err := s.normalizeProductInput(&input); err != nil {
		return nil, err
	}
	product := &models.Product{IsActive: true}
	applyProductInput(product, input)
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	if !product.IsActive {
		if err := s.productRepo.Update(product); err != nil {
			return nil, err
		}
	}
	return product, nil
}

// UpdateProduct 更新商品
func (s *CatalogService) UpdateProduct(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := s.normalizeProductInput(&input); err != nil {
		return nil, err
	}
	applyProductInput(product, input)
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

func normalizeStoreInput(input *StoreInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	input.BaseURL = strings.TrimSpace(input.BaseURL)
	if input.BaseURL != "" {
		normalized, err := urlnorm.Normalize(input.BaseURL)
		if err != nil {
			return fmt.Errorf("%w: base_url", ErrInvalidURL)
		}
		input.BaseURL = normalized
	}
	input.Host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(input.Host)), "www.")
	if input.Host == "" && input.BaseURL != "" {
		input.Host = urlnorm.Host(input.BaseURL)
	}
	if input.Host == "" {
		return fmt.Errorf("%w: host is required", ErrBadRequest)
	}
	input.AffiliateNetwork = strings.ToLower(strings.TrimSpace(input.AffiliateNetwork))
	switch input.AffiliateNetwork {
	case "", constants.NetworkCuelinks, constants.NetworkTrackier, constants.NetworkVcommission, constants.NetworkExtrape:
	default:
		return fmt.Errorf("%w: %s", ErrProviderUnsupported, input.AffiliateNetwork)
	}
	input.CampaignID = strings.TrimSpace(input.CampaignID)
	if err := validateCommissionFields(input.CommissionType, input.CommissionRate, input.MaxCommission); err != nil {
		return err
	}
	input.CommissionType = normalizeCommissionType(input.CommissionType)
	if input.CookieDuration < 0 {
		return fmt.Errorf("%w: cookie_duration must not be negative", ErrBadRequest)
	}
	if input.CookieDuration == 0 {
		input.CookieDuration = 30
	}
	return nil
}

func applyStoreInput(store *models.Store, input StoreInput) {
	store.Name = input.Name
	store.Host = input.Host
	store.BaseURL = input.BaseURL
	store.AffiliateNetwork = input.AffiliateNetwork
	store.CampaignID = input.CampaignID
	store.CommissionRate = models.NewMoney(input.CommissionRate)
	store.CommissionType = input.CommissionType
	store.MaxCommission = models.NewMoney(input.MaxCommission)
	store.CookieDuration = input.CookieDuration
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}
}

func (s *CatalogService) normalizeProductInput(input *ProductInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", ErrBadRequest)
	}
	if input.StoreID == 0 {
		return fmt.Errorf("%w: store_id is required", ErrBadRequest)
	}
	store, err := s.storeRepo.GetByID(input.StoreID)
	if err != nil {
		return err
	}
	if store == nil {
		return ErrStoreNotFound
	}
	normalized, err := urlnorm.Normalize(input.Deeplink)
	if err != nil {
		return fmt.Errorf("%w: deeplink", ErrInvalidURL)
	}
	input.Deeplink = normalized
	input.CategoryKey = strings.ToLower(strings.TrimSpace(input.CategoryKey))
	input.Override.Type = strings.ToLower(strings.TrimSpace(input.Override.Type))
	if input.Override.Type != "" {
		if err := validateCommissionFields(input.Override.Type, input.Override.Rate, input.Override.MaxCap); err != nil {
			return err
		}
	}
	return nil
}

func applyProductInput(product *models.Product, input ProductInput) {
	product.StoreID = input.StoreID
	product.Title = input.Title
	product.Deeplink = input.Deeplink
	product.MerchantHost = urlnorm.Host(input.Deeplink)
	product.CategoryKey = input.CategoryKey
	product.CommissionOverride = models.CommissionOverride{
		Rate:   models.NewMoney(input.Override.Rate),
		Type:   input.Override.Type,
		MaxCap: models.NewMoney(input.Override.MaxCap),
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}
