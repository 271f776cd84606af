package service

import (
	"errors"
	"testing"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/repository"
)

func TestTransitionDeltaTable(t *testing.T) {
	amount := money("50")
	neg := amount.Neg()
	zero := models.ZeroMoney()
	cases := []struct {
		from, to string
		want     repository.WalletDelta
	}{
		{constants.TransactionStatusPending, constants.TransactionStatusConfirmed,
			repository.WalletDelta{PendingCashback: neg, ConfirmedCashback: amount, AvailableBalance: amount}},
		{constants.TransactionStatusPending, constants.TransactionStatusCancelled,
			repository.WalletDelta{PendingCashback: neg}},
		{constants.TransactionStatusConfirmed, constants.TransactionStatusCancelled,
			repository.WalletDelta{ConfirmedCashback: neg, AvailableBalance: neg}},
		{constants.TransactionStatusUnderReview, constants.TransactionStatusConfirmed,
			repository.WalletDelta{PendingCashback: neg, ConfirmedCashback: amount, AvailableBalance: amount}},
		{constants.TransactionStatusPending, constants.TransactionStatusUnderReview, repository.WalletDelta{}},
	}
	for _, tc := range cases {
		got, err := TransitionDelta(tc.from, tc.to, amount)
		if err != nil {
			t.Fatalf("%s->%s: unexpected error %v", tc.from, tc.to, err)
		}
		checks := []struct {
			name      string
			got, want models.Money
		}{
			{"pending", got.PendingCashback, tc.want.PendingCashback},
			{"confirmed", got.ConfirmedCashback, tc.want.ConfirmedCashback},
			{"available", got.AvailableBalance, tc.want.AvailableBalance},
			{"total", got.TotalEarnings, zero},
		}
		for _, c := range checks {
			if !c.got.Equal(c.want) {
				t.Fatalf("%s->%s %s = %s, want %s", tc.from, tc.to, c.name, c.got, c.want)
			}
		}
	}
}

func TestTransitionDeltaRejectsUnlisted(t *testing.T) {
	unlisted := [][2]string{
		{constants.TransactionStatusCancelled, constants.TransactionStatusConfirmed},
		{constants.TransactionStatusCancelled, constants.TransactionStatusPending},
		{constants.TransactionStatusConfirmed, constants.TransactionStatusPending},
	}
	for _, pair := range unlisted {
		if _, err := TransitionDelta(pair[0], pair[1], money("10")); !errors.Is(err, ErrUnsupportedTransition) {
			t.Fatalf("%s->%s: expected ErrUnsupportedTransition, got %v", pair[0], pair[1], err)
		}
	}
}

func TestDeltasUseAbsoluteAmount(t *testing.T) {
	d := NewTransactionDelta(constants.TransactionStatusConfirmed, money("-12.30"))
	assertMoney(t, "confirmed", d.ConfirmedCashback, "12.30")
	assertMoney(t, "total", d.TotalEarnings, "12.30")
	if !NewTransactionDelta(constants.TransactionStatusCancelled, money("5")).IsZero() {
		t.Fatalf("cancelled new transaction must not touch the wallet")
	}
	r := RevisionDelta(constants.TransactionStatusPending, money("50"), money("35"))
	assertMoney(t, "pending revision", r.PendingCashback, "-15")
	assertMoney(t, "total revision", r.TotalEarnings, "-15")
	if !RevisionDelta(constants.TransactionStatusCancelled, money("50"), money("80")).IsZero() {
		t.Fatalf("cancelled revision must not touch the wallet")
	}
}

func TestWalletApplyIsAtomicIncrement(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)

	if err := env.wallet.ApplyNew(nil, user.ID, constants.TransactionStatusPending, money("20")); err != nil {
		t.Fatalf("apply new failed: %v", err)
	}
	if err := env.wallet.ApplyNew(nil, user.ID, constants.TransactionStatusPending, money("30")); err != nil {
		t.Fatalf("apply new failed: %v", err)
	}
	if err := env.wallet.ApplyTransition(nil, user.ID, constants.TransactionStatusPending, constants.TransactionStatusConfirmed, money("20")); err != nil {
		t.Fatalf("apply transition failed: %v", err)
	}
	w, err := env.wallet.GetWallet(user.ID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	assertMoney(t, "pending", w.PendingCashback, "30")
	assertMoney(t, "confirmed", w.ConfirmedCashback, "20")
	assertMoney(t, "available", w.AvailableBalance, "20")
	assertMoney(t, "total", w.TotalEarnings, "50")

	if err := env.wallet.ApplyTransition(nil, user.ID, constants.TransactionStatusCancelled, constants.TransactionStatusConfirmed, money("20")); !errors.Is(err, ErrUnsupportedTransition) {
		t.Fatalf("expected ErrUnsupportedTransition, got %v", err)
	}
	if _, err := env.wallet.GetWallet(9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
