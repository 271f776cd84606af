package repository

import (
	"errors"

	"github.com/earnko/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository 交易数据访问接口
type TransactionRepository interface {
	GetByID(id uint) (*models.Transaction, error)
	GetByIDForUpdate(id uint) (*models.Transaction, error)
	GetByOrderKey(orderKey string) (*models.Transaction, error)
	GetByOrderKeyForUpdate(orderKey string) (*models.Transaction, error)
	Create(tx *models.Transaction) error
	UpdateFields(id uint, fields map[string]interface{}) error
	List(filter TransactionListFilter) ([]models.Transaction, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) TransactionRepository
}

// GormTransactionRepository GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓库
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Transaction 执行数据库事务
func (r *GormTransactionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

func (r *GormTransactionRepository) first(query *gorm.DB) (*models.Transaction, error) {
	var txn models.Transaction
	if err := query.First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByID 按 ID 获取
func (r *GormTransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDForUpdate 按 ID 加锁获取
func (r *GormTransactionRepository) GetByIDForUpdate(id uint) (*models.Transaction, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetByOrderKey 按命名空间订单号获取
func (r *GormTransactionRepository) GetByOrderKey(orderKey string) (*models.Transaction, error) {
	return r.first(r.db.Where("order_key = ?", orderKey))
}

// GetByOrderKeyForUpdate 按命名空间订单号加锁获取
func (r *GormTransactionRepository) GetByOrderKeyForUpdate(orderKey string) (*models.Transaction, error) {
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_key = ?", orderKey))
}

// Create 创建交易
func (r *GormTransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// UpdateFields 按字段更新
func (r *GormTransactionRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Transaction{}).Where("id = ?", id).Updates(fields).Error
}

// List 交易列表
func (r *GormTransactionRepository) List(filter TransactionListFilter) ([]models.Transaction, int64, error) {
	query := r.db.Model(&models.Transaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Network != "" {
		query = query.Where("network = ?", filter.Network)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []models.Transaction
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
