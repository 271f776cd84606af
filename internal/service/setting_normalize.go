package service

import (
	"fmt"
	"strings"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"

	"github.com/shopspring/decimal"
)

// normalizeSettingValueByKey 按设置键执行归一化，非法值返回错误
func normalizeSettingValueByKey(key string, value map[string]interface{}) (models.JSON, error) {
	switch key {
	case constants.SettingKeyReferralBonus:
		return normalizeReferralBonusSetting(value)
	default:
		return models.JSON(value), nil
	}
}

func normalizeReferralBonusSetting(value map[string]interface{}) (models.JSON, error) {
	bonusType := strings.ToLower(normalizeSettingText(value["bonus_type"]))
	if bonusType != constants.ReferralBonusTypePercentage && bonusType != constants.ReferralBonusTypeFixed {
		return nil, fmt.Errorf("%w: bonus_type must be percentage or fixed", ErrInvalidReferralBonus)
	}
	bonusValue, err := parseSettingDecimal(value["bonus_value"])
	if err != nil || bonusValue.IsNegative() {
		return nil, fmt.Errorf("%w: bonus_value", ErrInvalidReferralBonus)
	}
	if bonusType == constants.ReferralBonusTypePercentage && bonusValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: percentage above 100", ErrInvalidReferralBonus)
	}
	bonusCap := decimal.Zero
	if raw, ok := value["bonus_cap"]; ok && raw != nil {
		bonusCap, err = parseSettingDecimal(raw)
		if err != nil || bonusCap.IsNegative() {
			return nil, fmt.Errorf("%w: bonus_cap", ErrInvalidReferralBonus)
		}
	}
	return models.JSON{
		"bonus_type":  bonusType,
		"bonus_value": bonusValue.Round(2).StringFixed(2),
		"bonus_cap":   bonusCap.Round(2).StringFixed(2),
	}, nil
}

func normalizeSettingText(raw interface{}) string {
	text, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func parseSettingDecimal(raw interface{}) (decimal.Decimal, error) {
	switch value := raw.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("empty value")
	case float64:
		return decimal.NewFromFloat(value), nil
	case int:
		return decimal.NewFromInt(int64(value)), nil
	case int64:
		return decimal.NewFromInt(value), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(value))
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", raw)
	}
}
