package service

import (
	"context"
	"strings"

	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// ClickService 点击归因账本
type ClickService struct {
	repo        repository.ClickRepository
	productRepo repository.ProductRepository
}

// NewClickService 创建点击服务
func NewClickService(repo repository.ClickRepository, productRepo repository.ProductRepository) *ClickService {
	return &ClickService{repo: repo, productRepo: productRepo}
}

// ClickInput 点击记录输入
type ClickInput struct {
	ClickID       string // 为空时自动生成
	UserID        *uint
	StoreID       *uint
	ProductID     *uint
	LinkID        *uint
	Slug          string
	Provider      string
	AffiliateLink string
	IPAddress     string
	UserAgent     string
	Referrer      string
	Metadata      models.JSON
}

// ClickAttribution 点击反查结果
type ClickAttribution struct {
	Click       *models.Click
	UserID      *uint
	StoreID     *uint
	ProductID   *uint
	LinkID      *uint
	CategoryKey string
	Provider    string
}

// NewClickID 生成不透明且不可预测的点击 ID
func NewClickID() string {
	return ulid.Make().String()
}

// RecordClick 写入点击记录
func (s *ClickService) RecordClick(_ context.Context, input ClickInput) (*models.Click, error) {
	return s.RecordClickTx(nil, input)
}

// RecordClickTx 在给定事务内写入点击记录；db 为 nil 时直接写库
func (s *ClickService) RecordClickTx(db *gorm.DB, input ClickInput) (*models.Click, error) {
	clickID := strings.TrimSpace(input.ClickID)
	if clickID == "" {
		clickID = NewClickID()
	}
	click := &models.Click{
		ClickID:       clickID,
		UserID:        input.UserID,
		StoreID:       input.StoreID,
		ProductID:     input.ProductID,
		LinkID:        input.LinkID,
		CustomSlug:    input.Slug,
		Provider:      input.Provider,
		AffiliateLink: input.AffiliateLink,
		IPAddress:     truncate(input.IPAddress, 64),
		UserAgent:     truncate(input.UserAgent, 1024),
		Referrer:      truncate(input.Referrer, 1024),
		Metadata:      input.Metadata,
	}
	if click.Metadata == nil {
		click.Metadata = models.JSON{}
	}
	if err := s.repo.WithTx(db).Create(click); err != nil {
		logger.Errorw("click_record_failed", "slug", input.Slug, "provider", input.Provider, "error", err)
		return nil, err
	}
	return click, nil
}

// AttachGeneratedLink 一次性写入延迟生成的深链；同值重复调用为空操作
func (s *ClickService) AttachGeneratedLink(clickID, link string) error {
	clickID = strings.TrimSpace(clickID)
	link = strings.TrimSpace(link)
	if clickID == "" || link == "" {
		return ErrBadRequest
	}
	affected, err := s.repo.AttachAffiliateLink(clickID, link)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	click, err := s.repo.GetByClickID(clickID)
	if err != nil {
		return err
	}
	if click == nil {
		return ErrClickNotFound
	}
	if click.AffiliateLink == link {
		return nil
	}
	return ErrClickLinkConflict
}

// ResolveByClickID 按点击 ID 反查用户/商家/商品
func (s *ClickService) ResolveByClickID(clickID string) (*ClickAttribution, error) {
	clickID = strings.TrimSpace(clickID)
	if clickID == "" {
		return nil, ErrMissingClickID
	}
	click, err := s.repo.GetByClickID(clickID)
	if err != nil {
		return nil, err
	}
	if click == nil {
		return nil, ErrClickNotFound
	}
	attr := &ClickAttribution{
		Click:     click,
		UserID:    click.UserID,
		StoreID:   click.StoreID,
		ProductID: click.ProductID,
		LinkID:    click.LinkID,
		Provider:  click.Provider,
	}
	attr.CategoryKey = click.Metadata.String("category_key")
	if attr.CategoryKey == "" && click.ProductID != nil && s.productRepo != nil {
		product, err := s.productRepo.GetByID(*click.ProductID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			attr.CategoryKey = product.CategoryKey
		}
	}
	return attr, nil
}

// ResolveOwner 事务内按点击 ID 查所属用户；点击不存在或匿名返回 nil
func (s *ClickService) ResolveOwner(db *gorm.DB, clickID string) (*uint, error) {
	click, err := s.repo.WithTx(db).GetByClickID(strings.TrimSpace(clickID))
	if err != nil || click == nil {
		return nil, err
	}
	if click.UserID == nil || *click.UserID == 0 {
		return nil, nil
	}
	return click.UserID, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
