package repository

import (
	"errors"
	"strings"

	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// StoreRepository 商家数据访问接口
type StoreRepository interface {
	GetByID(id uint) (*models.Store, error)
	FindByHost(host string) (*models.Store, error)
	Create(store *models.Store) error
	Update(store *models.Store) error
	List(filter StoreListFilter) ([]models.Store, int64, error)
	IncrementClicks(id uint) error
	IncrementConversion(id uint, commission models.Money) error
	WithTx(tx *gorm.DB) StoreRepository
}

// GormStoreRepository GORM 实现
type GormStoreRepository struct {
	db *gorm.DB
}

// NewStoreRepository 创建商家仓库
func NewStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStoreRepository) WithTx(tx *gorm.DB) StoreRepository {
	if tx == nil {
		return r
	}
	return &GormStoreRepository{db: tx}
}

// GetByID 按 ID 获取商家
func (r *GormStoreRepository) GetByID(id uint) (*models.Store, error) {
	if id == 0 {
		return nil, nil
	}
	var store models.Store
	if err := r.db.First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

// FindByHost 按域名匹配商家，先精确匹配再按父域名逐级回退
func (r *GormStoreRepository) FindByHost(host string) (*models.Store, error) {
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	for host != "" {
		var store models.Store
		err := r.db.Where("host = ? AND is_active = ?", host, true).Order("id asc").First(&store).Error
		if err == nil {
			return &store, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		idx := strings.Index(host, ".")
		if idx < 0 || !strings.Contains(host[idx+1:], ".") {
			break
		}
		host = host[idx+1:]
	}
	return nil, nil
}

// Create 创建商家
func (r *GormStoreRepository) Create(store *models.Store) error {
	return r.db.Create(store).Error
}

// Update 更新商家
func (r *GormStoreRepository) Update(store *models.Store) error {
	return r.db.Save(store).Error
}

// List 商家列表
func (r *GormStoreRepository) List(filter StoreListFilter) ([]models.Store, int64, error) {
	query := r.db.Model(&models.Store{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if cond, args := buildLikeCondition(r.db, []string{"name", "host"}, filter.Search); cond != "" {
		query = query.Where(cond, args...)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var stores []models.Store
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("id desc").Find(&stores).Error; err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

// IncrementClicks 点击数 +1
func (r *GormStoreRepository) IncrementClicks(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Store{}).Where("id = ?", id).
		UpdateColumn("total_clicks", gorm.Expr("total_clicks + 1")).Error
}

// IncrementConversion 转化数 +1 并累计佣金
func (r *GormStoreRepository) IncrementConversion(id uint, commission models.Money) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Store{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"total_conversions": gorm.Expr("total_conversions + 1"),
		"total_commission":  gorm.Expr("total_commission + ?", commission),
	}).Error
}
