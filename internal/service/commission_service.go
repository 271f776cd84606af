package service

import (
	"context"
	"strings"
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionRule 命中的佣金规则
type CommissionRule struct {
	Source string       `json:"source"`
	Rate   models.Money `json:"rate"`
	Type   string       `json:"type"`
	MaxCap models.Money `json:"max_cap"` // 0 表示不封顶
}

// CommissionService 佣金规则解析与计算
type CommissionService struct {
	txRepo         repository.TransactionRepository
	commissionRepo repository.CommissionRepository
	storeRepo      repository.StoreRepository
	productRepo    repository.ProductRepository
	ruleRepo       repository.CategoryCommissionRepository
	linkRepo       repository.LinkRepository
	clicks         *ClickService
	wallet         *WalletService
}

// NewCommissionService 创建佣金服务
func NewCommissionService(
	txRepo repository.TransactionRepository,
	commissionRepo repository.CommissionRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	ruleRepo repository.CategoryCommissionRepository,
	linkRepo repository.LinkRepository,
	clicks *ClickService,
	wallet *WalletService,
) *CommissionService {
	return &CommissionService{
		txRepo:         txRepo,
		commissionRepo: commissionRepo,
		storeRepo:      storeRepo,
		productRepo:    productRepo,
		ruleRepo:       ruleRepo,
		linkRepo:       linkRepo,
		clicks:         clicks,
		wallet:         wallet,
	}
}

// ComputeCommission 比例：金额*费率/100；固定：费率本身；超过封顶取封顶；保留 2 位小数（四舍五入，远离零）
func ComputeCommission(orderAmount models.Money, rule CommissionRule) models.Money {
	var amount decimal.Decimal
	switch rule.Type {
	case constants.CommissionTypeFixed:
		amount = rule.Rate.Decimal
	default:
		amount = orderAmount.Abs().Decimal.Mul(rule.Rate.Decimal).Div(decimal.NewFromInt(100))
	}
	if rule.MaxCap.IsPositive() && amount.GreaterThan(rule.MaxCap.Decimal) {
		amount = rule.MaxCap.Decimal
	}
	return models.NewMoney(amount)
}

// ResolveRule 规则优先级：商品覆盖 > 商家分类规则 > 全局分类规则 > 商家默认；都没有返回 nil
func (s *CommissionService) ResolveRule(db *gorm.DB, store *models.Store, product *models.Product, categoryKey string) (*CommissionRule, error) {
	if product != nil && product.CommissionOverride.Enabled() {
		o := product.CommissionOverride
		return &CommissionRule{
			Source: constants.CommissionRuleProductOverride,
			Rate:   o.Rate,
			Type:   normalizeCommissionType(o.Type),
			MaxCap: o.MaxCap,
		}, nil
	}

	categoryKey = strings.ToLower(strings.TrimSpace(categoryKey))
	if categoryKey == "" && product != nil {
		categoryKey = strings.ToLower(strings.TrimSpace(product.CategoryKey))
	}
	ruleRepo := s.ruleRepo.WithTx(db)
	if categoryKey != "" {
		if store != nil {
			rule, err := ruleRepo.FindActive(&store.ID, categoryKey)
			if err != nil {
				return nil, err
			}
			if rule != nil {
				return categoryRule(constants.CommissionRuleStoreCategory, rule), nil
			}
		}
		rule, err := ruleRepo.FindActive(nil, categoryKey)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			return categoryRule(constants.CommissionRuleGlobalCategory, rule), nil
		}
	}

	if store != nil && store.CommissionRate.IsPositive() {
		return &CommissionRule{
			Source: constants.CommissionRuleStoreDefault,
			Rate:   store.CommissionRate,
			Type:   normalizeCommissionType(store.CommissionType),
			MaxCap: store.MaxCommission,
		}, nil
	}
	return nil, nil
}

func categoryRule(source string, rule *models.CategoryCommission) *CommissionRule {
	return &CommissionRule{
		Source: source,
		Rate:   rule.CommissionRate,
		Type:   normalizeCommissionType(rule.CommissionType),
		MaxCap: rule.MaxCap,
	}
}

func normalizeCommissionType(t string) string {
	if strings.EqualFold(strings.TrimSpace(t), constants.CommissionTypeFixed) {
		return constants.CommissionTypeFixed
	}
	return constants.CommissionTypePercentage
}

// computeForTransaction 按规则计算；无规则时沿用网络回传的佣金
func (s *CommissionService) computeForTransaction(db *gorm.DB, tx *models.Transaction, reported models.Money) (models.Money, CommissionRule, error) {
	var store *models.Store
	var product *models.Product
	var err error
	if tx.StoreID != nil {
		if store, err = s.storeRepo.WithTx(db).GetByID(*tx.StoreID); err != nil {
			return models.Money{}, CommissionRule{}, err
		}
	}
	if tx.ProductID != nil {
		if product, err = s.productRepo.WithTx(db).GetByID(*tx.ProductID); err != nil {
			return models.Money{}, CommissionRule{}, err
		}
	}
	rule, err := s.ResolveRule(db, store, product, tx.CategoryKey)
	if err != nil {
		return models.Money{}, CommissionRule{}, err
	}
	if rule == nil {
		return reported.Abs(), CommissionRule{
			Source: constants.CommissionRuleNetworkReported,
			Type:   constants.CommissionTypeFixed,
			Rate:   reported.Abs(),
		}, nil
	}
	return ComputeCommission(tx.ProductAmount, *rule), *rule, nil
}

// reportedCommission 回传入账金额：网络回报的佣金优先，回报为 0 时按规则计算
func (s *CommissionService) reportedCommission(db *gorm.DB, tx *models.Transaction, reported models.Money) (models.Money, CommissionRule, error) {
	if !reported.IsZero() {
		return reported.Abs(), CommissionRule{
			Source: constants.CommissionRuleNetworkReported,
			Type:   constants.CommissionTypeFixed,
			Rate:   reported.Abs(),
		}, nil
	}
	return s.computeForTransaction(db, tx, reported)
}

// commissionStatusFor 交易状态到佣金状态；取消时已批准的记为 reversed，否则 rejected
func commissionStatusFor(txStatus, current string) string {
	switch walletStatus(txStatus) {
	case constants.TransactionStatusConfirmed:
		if current == constants.CommissionStatusPaid {
			return current
		}
		return constants.CommissionStatusApproved
	case constants.TransactionStatusCancelled:
		if current == constants.CommissionStatusApproved || current == constants.CommissionStatusPaid {
			return constants.CommissionStatusReversed
		}
		if current == constants.CommissionStatusReversed {
			return current
		}
		return constants.CommissionStatusRejected
	default:
		return constants.CommissionStatusPending
	}
}

// syncCommission 在事务内创建或更新交易对应的佣金记录；created 表示本次新建
func (s *CommissionService) syncCommission(db *gorm.DB, tx *models.Transaction, rule CommissionRule) (*models.Commission, bool, error) {
	beneficiary := tx.BeneficiaryID()
	if beneficiary == nil {
		return nil, false, nil
	}
	repo := s.commissionRepo.WithTx(db)
	existing, err := repo.GetByTransactionID(tx.ID)
	if err != nil {
		return nil, false, err
	}
	now := time.Now()
	if existing != nil {
		status := commissionStatusFor(tx.Status, existing.Status)
		fields := map[string]interface{}{}
		if status != existing.Status {
			fields["status"] = status
			switch status {
			case constants.CommissionStatusApproved:
				fields["approved_at"] = now
			case constants.CommissionStatusReversed:
				fields["reversed_at"] = now
			}
		}
		if !existing.Amount.Equal(tx.CommissionAmount) {
			fields["amount"] = tx.CommissionAmount
		}
		if len(fields) == 0 {
			return existing, false, nil
		}
		if err := repo.UpdateFields(existing.ID, fields); err != nil {
			return nil, false, err
		}
		updated, err := repo.GetByTransactionID(tx.ID)
		return updated, false, err
	}

	commission := &models.Commission{
		AffiliateID:   *beneficiary,
		StoreID:       tx.StoreID,
		TransactionID: tx.ID,
		Amount:        tx.CommissionAmount,
		Rate:          rule.Rate,
		Type:          rule.Type,
		Rule:          rule.Source,
		Status:        commissionStatusFor(tx.Status, ""),
		Metadata: models.JSON{
			"order_key": tx.OrderKey,
			"network":   tx.Network,
			"max_cap":   rule.MaxCap.String(),
		},
	}
	if commission.Status == constants.CommissionStatusApproved {
		commission.ApprovedAt = &now
	}
	err = repository.WithSavepoint(db, "commission_insert", func(sp *gorm.DB) error {
		return s.commissionRepo.WithTx(sp).Create(commission)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			found, getErr := repo.GetByTransactionID(tx.ID)
			return found, false, getErr
		}
		return nil, false, err
	}
	if tx.StoreID != nil {
		if err := s.storeRepo.WithTx(db).IncrementConversion(*tx.StoreID, commission.Amount); err != nil {
			return nil, false, err
		}
	}
	if tx.LinkID != nil {
		if err := s.linkRepo.WithTx(db).IncrementConversions(*tx.LinkID); err != nil {
			return nil, false, err
		}
	}
	return commission, true, nil
}

// ProcessTransaction 为交易生成佣金；已存在直接返回，无法归因返回 nil
func (s *CommissionService) ProcessTransaction(_ context.Context, transactionID uint) (*models.Commission, error) {
	if transactionID == 0 {
		return nil, ErrTransactionNotFound
	}
	var result *models.Commission
	err := s.txRepo.Transaction(func(db *gorm.DB) error {
		txRepo := s.txRepo.WithTx(db)
		tx, err := txRepo.GetByIDForUpdate(transactionID)
		if err != nil {
			return err
		}
		if tx == nil {
			return ErrTransactionNotFound
		}
		existing, err := s.commissionRepo.WithTx(db).GetByTransactionID(tx.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}
		beneficiary := tx.BeneficiaryID()
		if beneficiary == nil {
			owner, err := s.attachClickOwner(db, tx)
			if err != nil {
				return err
			}
			beneficiary = owner
		}
		if beneficiary == nil {
			logger.Infow("commission_skip_unattributed", "transaction_id", tx.ID, "order_key", tx.OrderKey)
			return nil
		}

		amount, rule, err := s.computeForTransaction(db, tx, tx.CommissionAmount)
		if err != nil {
			return err
		}
		if !amount.Equal(tx.CommissionAmount) {
			if err := s.wallet.ApplyRevision(db, *beneficiary, tx.Status, tx.CommissionAmount, amount); err != nil {
				return err
			}
			if err := txRepo.UpdateFields(tx.ID, map[string]interface{}{"commission_amount": amount}); err != nil {
				return err
			}
			tx.CommissionAmount = amount
		}
		commission, created, err := s.syncCommission(db, tx, rule)
		if err != nil {
			return err
		}
		result = commission
		if created {
			logger.Infow("commission_created",
				"transaction_id", tx.ID,
				"affiliate_id", commission.AffiliateID,
				"amount", commission.Amount.String(),
				"rule", commission.Rule,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// attachClickOwner 交易无用户时按点击归属补齐，并补记此前未入账的钱包金额
func (s *CommissionService) attachClickOwner(db *gorm.DB, tx *models.Transaction) (*uint, error) {
	if s.clicks == nil || strings.TrimSpace(tx.ClickID) == "" {
		return nil, nil
	}
	owner, err := s.clicks.ResolveOwner(db, tx.ClickID)
	if err != nil || owner == nil {
		return nil, err
	}
	if err := s.txRepo.WithTx(db).UpdateFields(tx.ID, map[string]interface{}{"user_id": *owner}); err != nil {
		return nil, err
	}
	tx.UserID = owner
	if err := s.wallet.ApplyNew(db, *owner, tx.Status, tx.CommissionAmount); err != nil {
		return nil, err
	}
	logger.Infow("commission_attributed_by_click",
		"transaction_id", tx.ID,
		"click_id", tx.ClickID,
		"user_id", *owner,
	)
	return owner, nil
}
