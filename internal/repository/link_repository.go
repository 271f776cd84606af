package repository

import (
	"errors"

	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// LinkRepository 分享链接数据访问接口
type LinkRepository interface {
	GetBySlug(slug string) (*models.UniqueLink, error)
	GetByID(id uint) (*models.UniqueLink, error)
	SlugExists(slug string) (bool, error)
	Create(link *models.UniqueLink) error
	ListByUser(filter LinkListFilter) ([]models.UniqueLink, int64, error)
	IncrementClicks(id uint) error
	IncrementConversions(id uint) error
	WithTx(tx *gorm.DB) LinkRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormLinkRepository GORM 实现
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository 创建链接仓库
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLinkRepository) WithTx(tx *gorm.DB) LinkRepository {
	if tx == nil {
		return r
	}
	return &GormLinkRepository{db: tx}
}

// Transaction 执行数据库事务
func (r *GormLinkRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetBySlug 按 slug 获取链接
func (r *GormLinkRepository) GetBySlug(slug string) (*models.UniqueLink, error) {
	if slug == "" {
		return nil, nil
	}
	var link models.UniqueLink
	if err := r.db.Preload("Store").Where("slug = ?", slug).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetByID 按 ID 获取链接
func (r *GormLinkRepository) GetByID(id uint) (*models.UniqueLink, error) {
	if id == 0 {
		return nil, nil
	}
	var link models.UniqueLink
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// SlugExists slug 是否已占用
func (r *GormLinkRepository) SlugExists(slug string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.UniqueLink{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建链接
func (r *GormLinkRepository) Create(link *models.UniqueLink) error {
	return r.db.Omit("Store").Create(link).Error
}

// ListByUser 用户链接列表
func (r *GormLinkRepository) ListByUser(filter LinkListFilter) ([]models.UniqueLink, int64, error) {
	query := r.db.Model(&models.UniqueLink{}).Where("user_id = ?", filter.UserID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var links []models.UniqueLink
	if err := applyPagination(query, filter.Page, filter.PageSize).Preload("Store").Order("id desc").Find(&links).Error; err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// IncrementClicks 点击数 +1
func (r *GormLinkRepository) IncrementClicks(id uint) error {
	return r.db.Model(&models.UniqueLink{}).Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
}

// IncrementConversions 转化数 +1
func (r *GormLinkRepository) IncrementConversions(id uint) error {
	return r.db.Model(&models.UniqueLink{}).Where("id = ?", id).
		UpdateColumn("conversions", gorm.Expr("conversions + 1")).Error
}
