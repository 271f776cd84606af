package service

import (
	"time"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralService 邀请奖励级联
type ReferralService struct {
	cfg        config.ReferralConfig
	rewardRepo repository.ReferralRewardRepository
	userRepo   repository.UserRepository
	settings   *SettingService
	wallet     *WalletService
}

// NewReferralService 创建邀请奖励服务
func NewReferralService(
	cfg config.ReferralConfig,
	rewardRepo repository.ReferralRewardRepository,
	userRepo repository.UserRepository,
	settings *SettingService,
	wallet *WalletService,
) *ReferralService {
	return &ReferralService{
		cfg:        cfg,
		rewardRepo: rewardRepo,
		userRepo:   userRepo,
		settings:   settings,
		wallet:     wallet,
	}
}

// ComputeBonus 按比例或固定额计算奖励并封顶
func ComputeBonus(bonus ReferralBonus, commission models.Money) models.Money {
	var amount decimal.Decimal
	switch bonus.Type {
	case constants.ReferralBonusTypeFixed:
		amount = bonus.Value
	default:
		amount = commission.Abs().Decimal.Mul(bonus.Value).Div(decimal.NewFromInt(100))
	}
	if bonus.Cap.IsPositive() && amount.GreaterThan(bonus.Cap) {
		amount = bonus.Cap
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return models.NewMoney(amount)
}

// Credit 交易确认时给邀请人发奖励；(transaction, referrer) 唯一，重复调用返回已有记录
func (s *ReferralService) Credit(tx *gorm.DB, transaction *models.Transaction, beneficiaryID uint, commission models.Money) (*models.ReferralReward, error) {
	if transaction == nil || beneficiaryID == 0 {
		return nil, nil
	}
	userRepo := s.userRepo
	rewardRepo := s.rewardRepo
	if tx != nil {
		userRepo = s.userRepo.WithTx(tx)
		rewardRepo = s.rewardRepo.WithTx(tx)
	}
	user, err := userRepo.GetByID(beneficiaryID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ReferredByID == nil || *user.ReferredByID == 0 || *user.ReferredByID == user.ID {
		return nil, nil
	}
	referrerID := *user.ReferredByID

	existing, err := rewardRepo.Get(transaction.ID, referrerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	settings, err := s.settings.GetReferralBonus(s.cfg)
	if err != nil {
		logger.Warnw("referral_bonus_setting_load_failed", "error", err)
	}
	amount := ComputeBonus(settings, commission)
	if !amount.IsPositive() {
		return nil, nil
	}

	reward := &models.ReferralReward{
		TransactionID: transaction.ID,
		ReferrerID:    referrerID,
		ReferredID:    user.ID,
		Amount:        amount,
		Status:        constants.ReferralRewardStatusCredited,
	}
	err = repository.WithSavepoint(tx, "referral_reward_insert", func(sp *gorm.DB) error {
		return s.rewardRepo.WithTx(sp).Create(reward)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return rewardRepo.Get(transaction.ID, referrerID)
		}
		return nil, err
	}
	if err := s.wallet.Apply(tx, referrerID, repository.WalletDelta{
		ReferralEarnings: amount,
		AvailableBalance: amount,
	}); err != nil {
		return nil, err
	}
	logger.Infow("referral_reward_credited",
		"transaction_id", transaction.ID,
		"referrer_id", referrerID,
		"referred_id", user.ID,
		"amount", amount.String(),
	)
	return reward, nil
}

// Reverse 已确认交易被取消时冲回奖励；没有已发放奖励时不做任何事
func (s *ReferralService) Reverse(tx *gorm.DB, transactionID uint) (int, error) {
	rewardRepo := s.rewardRepo
	if tx != nil {
		rewardRepo = s.rewardRepo.WithTx(tx)
	}
	rewards, err := rewardRepo.GetCreditedByTransaction(transactionID)
	if err != nil {
		return 0, err
	}
	reversed := 0
	now := time.Now()
	for _, reward := range rewards {
		affected, err := rewardRepo.MarkReversed(reward.ID, now)
		if err != nil {
			return reversed, err
		}
		if affected == 0 {
			continue
		}
		if err := s.wallet.Apply(tx, reward.ReferrerID, repository.WalletDelta{
			ReferralEarnings: reward.Amount.Neg(),
			AvailableBalance: reward.Amount.Neg(),
		}); err != nil {
			return reversed, err
		}
		reversed++
		logger.Infow("referral_reward_reversed",
			"transaction_id", transactionID,
			"referrer_id", reward.ReferrerID,
			"amount", reward.Amount.String(),
		)
	}
	return reversed, nil
}
