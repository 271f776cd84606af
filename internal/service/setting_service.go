package service

import (
	"strings"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"

	"github.com/shopspring/decimal"
)

// SettingService 运行期业务参数
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// ReferralBonus 邀请奖励参数
type ReferralBonus struct {
	Type  string          `json:"bonus_type"`
	Value decimal.Decimal `json:"bonus_value"`
	Cap   decimal.Decimal `json:"bonus_cap"` // 0 表示不封顶
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 归一化后写入设置
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	normalized, err := normalizeSettingValueByKey(key, value)
	if err != nil {
		return nil, err
	}
	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

// GetReferralBonus 读取邀请奖励参数，设置表优先，缺失或非法时用配置默认值
func (s *SettingService) GetReferralBonus(defaults config.ReferralConfig) (ReferralBonus, error) {
	bonus := ReferralBonus{
		Type:  strings.ToLower(strings.TrimSpace(defaults.BonusType)),
		Value: decimal.NewFromFloat(defaults.BonusValue),
		Cap:   decimal.NewFromFloat(defaults.BonusCap),
	}
	if bonus.Type == "" {
		bonus.Type = constants.ReferralBonusTypePercentage
	}
	if s == nil || s.repo == nil {
		return bonus, nil
	}
	value, err := s.GetByKey(constants.SettingKeyReferralBonus)
	if err != nil {
		return bonus, err
	}
	if value == nil {
		return bonus, nil
	}
	normalized, err := normalizeReferralBonusSetting(value)
	if err != nil {
		return bonus, nil
	}
	bonus.Type = normalized.String("bonus_type")
	bonus.Value, _ = decimal.NewFromString(normalized.String("bonus_value"))
	bonus.Cap, _ = decimal.NewFromString(normalized.String("bonus_cap"))
	return bonus, nil
}
