package service

import (
	"fmt"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"

	"gorm.io/gorm"
)

// WalletService 钱包余额桶的状态迁移
type WalletService struct {
	userRepo repository.UserRepository
}

// NewWalletService 创建钱包服务
func NewWalletService(userRepo repository.UserRepository) *WalletService {
	return &WalletService{userRepo: userRepo}
}

// GetWallet 读取用户钱包
func (s *WalletService) GetWallet(userID uint) (*models.Wallet, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &user.Wallet, nil
}

// walletStatus 人工复核在钱包口径上等同 pending
func walletStatus(status string) string {
	if status == constants.TransactionStatusUnderReview {
		return constants.TransactionStatusPending
	}
	return status
}

// NewTransactionDelta 新交易入账
func NewTransactionDelta(status string, amount models.Money) repository.WalletDelta {
	amount = amount.Abs()
	switch walletStatus(status) {
	case constants.TransactionStatusPending:
		return repository.WalletDelta{PendingCashback: amount, TotalEarnings: amount}
	case constants.TransactionStatusConfirmed:
		return repository.WalletDelta{ConfirmedCashback: amount, AvailableBalance: amount, TotalEarnings: amount}
	default:
		return repository.WalletDelta{}
	}
}

// RevisionDelta 状态不变、佣金变化时只补差额
func RevisionDelta(status string, oldAmount, newAmount models.Money) repository.WalletDelta {
	diff := newAmount.Abs().Sub(oldAmount.Abs())
	if diff.IsZero() {
		return repository.WalletDelta{}
	}
	switch walletStatus(status) {
	case constants.TransactionStatusPending:
		return repository.WalletDelta{PendingCashback: diff, TotalEarnings: diff}
	case constants.TransactionStatusConfirmed:
		return repository.WalletDelta{ConfirmedCashback: diff, AvailableBalance: diff, TotalEarnings: diff}
	default:
		return repository.WalletDelta{}
	}
}

// TransitionDelta 状态迁移的余额变化；未列出的迁移返回 ErrUnsupportedTransition
func TransitionDelta(from, to string, amount models.Money) (repository.WalletDelta, error) {
	from, to = walletStatus(from), walletStatus(to)
	amount = amount.Abs()
	if from == to {
		return repository.WalletDelta{}, nil
	}
	switch {
	case from == constants.TransactionStatusPending && to == constants.TransactionStatusConfirmed:
		return repository.WalletDelta{
			PendingCashback:   amount.Neg(),
			ConfirmedCashback: amount,
			AvailableBalance:  amount,
		}, nil
	case from == constants.TransactionStatusPending && to == constants.TransactionStatusCancelled:
		return repository.WalletDelta{PendingCashback: amount.Neg()}, nil
	case from == constants.TransactionStatusConfirmed && to == constants.TransactionStatusCancelled:
		return repository.WalletDelta{
			ConfirmedCashback: amount.Neg(),
			AvailableBalance:  amount.Neg(),
		}, nil
	}
	return repository.WalletDelta{}, fmt.Errorf("%w: %s -> %s", ErrUnsupportedTransition, from, to)
}

// Apply 在事务内原子累加
func (s *WalletService) Apply(tx *gorm.DB, userID uint, delta repository.WalletDelta) error {
	if userID == 0 || delta.IsZero() {
		return nil
	}
	repo := s.userRepo
	if tx != nil {
		repo = s.userRepo.WithTx(tx)
	}
	return repo.IncrementWallet(userID, delta)
}

// ApplyNew 新交易入账
func (s *WalletService) ApplyNew(tx *gorm.DB, userID uint, status string, amount models.Money) error {
	return s.Apply(tx, userID, NewTransactionDelta(status, amount))
}

// ApplyRevision 同状态佣金修订
func (s *WalletService) ApplyRevision(tx *gorm.DB, userID uint, status string, oldAmount, newAmount models.Money) error {
	return s.Apply(tx, userID, RevisionDelta(status, oldAmount, newAmount))
}

// ApplyTransition 状态迁移
func (s *WalletService) ApplyTransition(tx *gorm.DB, userID uint, from, to string, amount models.Money) error {
	delta, err := TransitionDelta(from, to, amount)
	if err != nil {
		return err
	}
	return s.Apply(tx, userID, delta)
}
