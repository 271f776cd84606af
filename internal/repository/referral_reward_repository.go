package repository

import (
	"errors"
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// ReferralRewardRepository 邀请奖励数据访问接口
type ReferralRewardRepository interface {
	Get(transactionID, referrerID uint) (*models.ReferralReward, error)
	GetCreditedByTransaction(transactionID uint) ([]models.ReferralReward, error)
	Create(reward *models.ReferralReward) error
	MarkReversed(id uint, at time.Time) (int64, error)
	WithTx(tx *gorm.DB) ReferralRewardRepository
}

// GormReferralRewardRepository GORM 实现
type GormReferralRewardRepository struct {
	db *gorm.DB
}

// NewReferralRewardRepository 创建邀请奖励仓库
func NewReferralRewardRepository(db *gorm.DB) *GormReferralRewardRepository {
	return &GormReferralRewardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRewardRepository) WithTx(tx *gorm.DB) ReferralRewardRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRewardRepository{db: tx}
}

// Get 按 (交易, 邀请人) 获取
func (r *GormReferralRewardRepository) Get(transactionID, referrerID uint) (*models.ReferralReward, error) {
	var reward models.ReferralReward
	err := r.db.Where("transaction_id = ? AND referrer_id = ?", transactionID, referrerID).First(&reward).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// GetCreditedByTransaction 交易下仍处于已入账状态的奖励
func (r *GormReferralRewardRepository) GetCreditedByTransaction(transactionID uint) ([]models.ReferralReward, error) {
	var rewards []models.ReferralReward
	err := r.db.Where("transaction_id = ? AND status = ?", transactionID, constants.ReferralRewardStatusCredited).
		Find(&rewards).Error
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// Create 创建奖励
func (r *GormReferralRewardRepository) Create(reward *models.ReferralReward) error {
	return r.db.Create(reward).Error
}

// MarkReversed 条件更新为已冲正，返回影响行数防止重复冲正
func (r *GormReferralRewardRepository) MarkReversed(id uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.ReferralReward{}).
		Where("id = ? AND status = ?", id, constants.ReferralRewardStatusCredited).
		Updates(map[string]interface{}{
			"status":      constants.ReferralRewardStatusReversed,
			"reversed_at": at,
		})
	return res.RowsAffected, res.Error
}
