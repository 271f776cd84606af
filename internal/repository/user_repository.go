package repository

import (
	"errors"

	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// WalletDelta 钱包各余额桶的增量，零值字段不参与更新
type WalletDelta struct {
	TotalEarnings     models.Money
	PendingCashback   models.Money
	ConfirmedCashback models.Money
	AvailableBalance  models.Money
	TotalWithdrawn    models.Money
	ReferralEarnings  models.Money
}

// IsZero 是否没有任何变动
func (d WalletDelta) IsZero() bool {
	return d.TotalEarnings.IsZero() &&
		d.PendingCashback.IsZero() &&
		d.ConfirmedCashback.IsZero() &&
		d.AvailableBalance.IsZero() &&
		d.TotalWithdrawn.IsZero() &&
		d.ReferralEarnings.IsZero()
}

func (d WalletDelta) columns() map[string]models.Money {
	return map[string]models.Money{
		"wallet_total_earnings":     d.TotalEarnings,
		"wallet_pending_cashback":   d.PendingCashback,
		"wallet_confirmed_cashback": d.ConfirmedCashback,
		"wallet_available_balance":  d.AvailableBalance,
		"wallet_total_withdrawn":    d.TotalWithdrawn,
		"wallet_referral_earnings":  d.ReferralEarnings,
	}
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	IncrementWallet(userID uint, delta WalletDelta) error
	WithTx(tx *gorm.DB) UserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByID 按 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 按邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// IncrementWallet 以原子增量更新钱包余额桶
func (r *GormUserRepository) IncrementWallet(userID uint, delta WalletDelta) error {
	if userID == 0 || delta.IsZero() {
		return nil
	}
	updates := make(map[string]interface{}, 6)
	for column, amount := range delta.columns() {
		if amount.IsZero() {
			continue
		}
		updates[column] = gorm.Expr(column+" + ?", amount)
	}
	res := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
