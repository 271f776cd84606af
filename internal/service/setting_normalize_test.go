package service

import (
	"errors"
	"testing"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"

	"github.com/shopspring/decimal"
)

func TestUpdateReferralBonusNormalized(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.settings.Update(constants.SettingKeyReferralBonus, map[string]interface{}{
		"bonus_type":  " FIXED ",
		"bonus_value": "12.345",
		"extra":       "dropped",
	})
	if err != nil {
		t.Fatalf("update referral bonus failed: %v", err)
	}
	if result.String("bonus_type") != constants.ReferralBonusTypeFixed {
		t.Fatalf("unexpected bonus_type: %v", result["bonus_type"])
	}
	if result.String("bonus_value") != "12.35" || result.String("bonus_cap") != "0.00" {
		t.Fatalf("unexpected bonus amounts: %v", result)
	}
	if _, ok := result["extra"]; ok {
		t.Fatalf("unknown field kept: %v", result)
	}
}

func TestUpdateReferralBonusRejectsInvalid(t *testing.T) {
	env := newTestEnv(t)
	cases := []map[string]interface{}{
		{"bonus_type": "tiered", "bonus_value": 5},
		{"bonus_type": "percentage", "bonus_value": 120},
		{"bonus_type": "fixed", "bonus_value": -1},
		{"bonus_type": "fixed", "bonus_value": 5, "bonus_cap": "abc"},
		{"bonus_type": "fixed"},
	}
	for i, value := range cases {
		if _, err := env.settings.Update(constants.SettingKeyReferralBonus, value); !errors.Is(err, ErrInvalidReferralBonus) {
			t.Fatalf("case %d: expected ErrInvalidReferralBonus, got %v", i, err)
		}
	}
}

func TestGetReferralBonusPrefersSettingRow(t *testing.T) {
	env := newTestEnv(t)
	defaults := config.ReferralConfig{BonusType: "percentage", BonusValue: 10, BonusCap: 0}

	bonus, err := env.settings.GetReferralBonus(defaults)
	if err != nil {
		t.Fatalf("get defaults failed: %v", err)
	}
	if bonus.Type != constants.ReferralBonusTypePercentage || !bonus.Value.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected defaults: %+v", bonus)
	}

	if _, err := env.settings.Update(constants.SettingKeyReferralBonus, map[string]interface{}{
		"bonus_type":  "percentage",
		"bonus_value": 20.0,
		"bonus_cap":   15.0,
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	bonus, err = env.settings.GetReferralBonus(defaults)
	if err != nil {
		t.Fatalf("get override failed: %v", err)
	}
	if !bonus.Value.Equal(decimal.NewFromInt(20)) || !bonus.Cap.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("setting row ignored: %+v", bonus)
	}
}

func TestComputeReferralBonus(t *testing.T) {
	cases := []struct {
		name  string
		bonus ReferralBonus
		base  string
		want  string
	}{
		{"percentage", ReferralBonus{Type: "percentage", Value: decimal.NewFromInt(10)}, "50", "5"},
		{"percentage capped", ReferralBonus{Type: "percentage", Value: decimal.NewFromInt(10), Cap: decimal.NewFromInt(3)}, "50", "3"},
		{"fixed", ReferralBonus{Type: "fixed", Value: decimal.NewFromInt(25)}, "50", "25"},
		{"negative base uses magnitude", ReferralBonus{Type: "percentage", Value: decimal.NewFromInt(10)}, "-40", "4"},
	}
	for _, tc := range cases {
		if got := ComputeBonus(tc.bonus, money(tc.base)); !got.Equal(money(tc.want)) {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}
