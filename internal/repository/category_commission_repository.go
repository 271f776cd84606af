package repository

import (
	"errors"

	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// CategoryCommissionRepository 分类佣金规则数据访问接口
type CategoryCommissionRepository interface {
	GetByID(id uint) (*models.CategoryCommission, error)
	FindActive(storeID *uint, categoryKey string) (*models.CategoryCommission, error)
	FindScope(storeID *uint, categoryKey string) (*models.CategoryCommission, error)
	Create(rule *models.CategoryCommission) error
	Update(rule *models.CategoryCommission) error
	Delete(id uint) error
	List(filter CategoryCommissionListFilter) ([]models.CategoryCommission, int64, error)
	WithTx(tx *gorm.DB) CategoryCommissionRepository
}

// GormCategoryCommissionRepository GORM 实现
type GormCategoryCommissionRepository struct {
	db *gorm.DB
}

// NewCategoryCommissionRepository 创建规则仓库
func NewCategoryCommissionRepository(db *gorm.DB) *GormCategoryCommissionRepository {
	return &GormCategoryCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCategoryCommissionRepository) WithTx(tx *gorm.DB) CategoryCommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCategoryCommissionRepository{db: tx}
}

// GetByID 按 ID 获取
func (r *GormCategoryCommissionRepository) GetByID(id uint) (*models.CategoryCommission, error) {
	var rule models.CategoryCommission
	if err := r.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// FindActive 查找生效规则；storeID 为 nil 时查全局规则
func (r *GormCategoryCommissionRepository) FindActive(storeID *uint, categoryKey string) (*models.CategoryCommission, error) {
	if categoryKey == "" {
		return nil, nil
	}
	query := r.db.Where("category_key = ? AND is_active = ?", categoryKey, true)
	if storeID == nil {
		query = query.Where("store_id IS NULL")
	} else {
		query = query.Where("store_id = ?", *storeID)
	}
	var rule models.CategoryCommission
	if err := query.First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// FindScope 按作用域查找规则，不区分启用状态
func (r *GormCategoryCommissionRepository) FindScope(storeID *uint, categoryKey string) (*models.CategoryCommission, error) {
	query := r.db.Where("category_key = ?", categoryKey)
	if storeID == nil {
		query = query.Where("store_id IS NULL")
	} else {
		query = query.Where("store_id = ?", *storeID)
	}
	var rule models.CategoryCommission
	if err := query.First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// Create 创建规则
func (r *GormCategoryCommissionRepository) Create(rule *models.CategoryCommission) error {
	return r.db.Create(rule).Error
}

// Update 更新规则
func (r *GormCategoryCommissionRepository) Update(rule *models.CategoryCommission) error {
	return r.db.Save(rule).Error
}

// Delete 删除规则
func (r *GormCategoryCommissionRepository) Delete(id uint) error {
	return r.db.Delete(&models.CategoryCommission{}, id).Error
}

// List 规则列表
func (r *GormCategoryCommissionRepository) List(filter CategoryCommissionListFilter) ([]models.CategoryCommission, int64, error) {
	query := r.db.Model(&models.CategoryCommission{})
	switch {
	case filter.GlobalOnly:
		query = query.Where("store_id IS NULL")
	case filter.StoreID != 0:
		query = query.Where("store_id = ?", filter.StoreID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rules []models.CategoryCommission
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("id desc").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}
