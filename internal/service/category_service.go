package service

import (
	"fmt"
	"strings"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"

	"github.com/shopspring/decimal"
)

// CategoryCommissionService 分类佣金规则管理
type CategoryCommissionService struct {
	repo      repository.CategoryCommissionRepository
	storeRepo repository.StoreRepository
}

// NewCategoryCommissionService 创建分类佣金规则服务
func NewCategoryCommissionService(repo repository.CategoryCommissionRepository, storeRepo repository.StoreRepository) *CategoryCommissionService {
	return &CategoryCommissionService{repo: repo, storeRepo: storeRepo}
}

// CategoryCommissionInput 创建/更新规则输入
type CategoryCommissionInput struct {
	StoreID        *uint
	CategoryKey    string
	Label          string
	CommissionRate decimal.Decimal
	CommissionType string
	MaxCap         decimal.Decimal
	IsActive       *bool
}

// List 规则列表
func (s *CategoryCommissionService) List(filter repository.CategoryCommissionListFilter) ([]models.CategoryCommission, int64, error) {
	return s.repo.List(filter)
}

// Create 创建规则；同一 (商家, 分类) 只允许一条，全局规则同样唯一
func (s *CategoryCommissionService) Create(input CategoryCommissionInput) (*models.CategoryCommission, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindScope(input.StoreID, input.CategoryKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRuleConflict
	}
	rule := &models.CategoryCommission{IsActive: true}
	applyRuleInput(rule, input)
	if err := s.repo.Create(rule); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrRuleConflict
		}
		return nil, err
	}
	if input.IsActive != nil && !*input.IsActive {
		// 零值会被列默认值覆盖，创建后补写
		if err := s.repo.Update(rule); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

// Update 更新规则
func (s *CategoryCommissionService) Update(id uint, input CategoryCommissionInput) (*models.CategoryCommission, error) {
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindScope(input.StoreID, input.CategoryKey)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != rule.ID {
		return nil, ErrRuleConflict
	}
	applyRuleInput(rule, input)
	if err := s.repo.Update(rule); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrRuleConflict
		}
		return nil, err
	}
	return rule, nil
}

// Delete 删除规则
func (s *CategoryCommissionService) Delete(id uint) error {
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrRuleNotFound
	}
	return s.repo.Delete(id)
}

func (s *CategoryCommissionService) validate(input *CategoryCommissionInput) error {
	input.CategoryKey = strings.ToLower(strings.TrimSpace(input.CategoryKey))
	input.Label = strings.TrimSpace(input.Label)
	if input.CategoryKey == "" {
		return fmt.Errorf("%w: category_key is required", ErrInvalidRule)
	}
	if input.StoreID != nil && *input.StoreID == 0 {
		input.StoreID = nil
	}
	if err := validateCommissionFields(input.CommissionType, input.CommissionRate, input.MaxCap); err != nil {
		return err
	}
	input.CommissionType = normalizeCommissionType(input.CommissionType)
	if input.StoreID != nil {
		store, err := s.storeRepo.GetByID(*input.StoreID)
		if err != nil {
			return err
		}
		if store == nil {
			return ErrStoreNotFound
		}
	}
	return nil
}

// validateCommissionFields 费率非负，比例不超过 100，封顶非负
func validateCommissionFields(commissionType string, rate, maxCap decimal.Decimal) error {
	t := strings.ToLower(strings.TrimSpace(commissionType))
	if t != "" && t != constants.CommissionTypePercentage && t != constants.CommissionTypeFixed {
		return fmt.Errorf("%w: unknown commission type %q", ErrInvalidRule, commissionType)
	}
	if rate.IsNegative() {
		return fmt.Errorf("%w: commission rate must not be negative", ErrInvalidRule)
	}
	if t != constants.CommissionTypeFixed && rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage rate must not exceed 100", ErrInvalidRule)
	}
	if maxCap.IsNegative() {
		return fmt.Errorf("%w: max cap must not be negative", ErrInvalidRule)
	}
	return nil
}

func applyRuleInput(rule *models.CategoryCommission, input CategoryCommissionInput) {
	rule.StoreID = input.StoreID
	rule.CategoryKey = input.CategoryKey
	rule.Label = input.Label
	rule.CommissionRate = models.NewMoney(input.CommissionRate)
	rule.CommissionType = input.CommissionType
	rule.MaxCap = models.NewMoney(input.MaxCap)
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
}
