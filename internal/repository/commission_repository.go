package repository

import (
	"errors"

	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// CommissionRepository 佣金数据访问接口
type CommissionRepository interface {
	GetByTransactionID(transactionID uint) (*models.Commission, error)
	Create(commission *models.Commission) error
	UpdateFields(id uint, fields map[string]interface{}) error
	WithTx(tx *gorm.DB) CommissionRepository
}

// GormCommissionRepository GORM 实现
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓库
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// GetByTransactionID 按交易获取佣金
func (r *GormCommissionRepository) GetByTransactionID(transactionID uint) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.Where("transaction_id = ?", transactionID).First(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// Create 创建佣金
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// UpdateFields 按字段更新
func (r *GormCommissionRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Commission{}).Where("id = ?", id).Updates(fields).Error
}
