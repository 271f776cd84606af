package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/network"
	"github.com/earnko/internal/notify"
	"github.com/earnko/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, e := range n.events {
		if e.Type == eventType {
			total++
		}
	}
	return total
}

type testEnv struct {
	db          *gorm.DB
	userRepo    *repository.GormUserRepository
	storeRepo   *repository.GormStoreRepository
	productRepo *repository.GormProductRepository
	ruleRepo    *repository.GormCategoryCommissionRepository
	linkRepo    *repository.GormLinkRepository
	txRepo      *repository.GormTransactionRepository
	eventRepo   *repository.GormWebhookEventRepository
	rewardRepo  *repository.GormReferralRewardRepository
	settingRepo *repository.GormSettingRepository

	wallet      *WalletService
	clicks      *ClickService
	commissions *CommissionService
	settings    *SettingService
	referrals   *ReferralService
	webhooks    *WebhookService
	notifier    *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	env := &testEnv{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		storeRepo:   repository.NewStoreRepository(db),
		productRepo: repository.NewProductRepository(db),
		ruleRepo:    repository.NewCategoryCommissionRepository(db),
		linkRepo:    repository.NewLinkRepository(db),
		txRepo:      repository.NewTransactionRepository(db),
		eventRepo:   repository.NewWebhookEventRepository(db),
		rewardRepo:  repository.NewReferralRewardRepository(db),
		settingRepo: repository.NewSettingRepository(db),
		notifier:    &recordingNotifier{},
	}
	env.wallet = NewWalletService(env.userRepo)
	env.clicks = NewClickService(repository.NewClickRepository(db), env.productRepo)
	env.commissions = NewCommissionService(
		env.txRepo,
		repository.NewCommissionRepository(db),
		env.storeRepo,
		env.productRepo,
		env.ruleRepo,
		env.linkRepo,
		env.clicks,
		env.wallet,
	)
	env.settings = NewSettingService(env.settingRepo)
	env.referrals = NewReferralService(
		config.ReferralConfig{BonusType: constants.ReferralBonusTypePercentage, BonusValue: 10},
		env.rewardRepo,
		env.userRepo,
		env.settings,
		env.wallet,
	)
	env.webhooks = NewWebhookService(env.eventRepo, env.txRepo, env.clicks, env.commissions, env.wallet, env.referrals, env.notifier)
	return env
}

func money(s string) models.Money {
	return models.NewMoney(decimal.RequireFromString(s))
}

func (e *testEnv) createUser(t *testing.T, referredBy *uint) *models.User {
	t.Helper()
	user := &models.User{
		Email:  fmt.Sprintf("user_%d@example.com", time.Now().UnixNano()),
		Status: constants.UserStatusActive,
	}
	user.ReferredByID = referredBy
	if err := e.userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (e *testEnv) createStore(t *testing.T, host string, rate string) *models.Store {
	t.Helper()
	store := &models.Store{
		Name:           host,
		Host:           host,
		CommissionRate: money(rate),
		CommissionType: constants.CommissionTypePercentage,
		CookieDuration: 7,
		IsActive:       true,
	}
	if err := e.storeRepo.Create(store); err != nil {
		t.Fatalf("create store failed: %v", err)
	}
	return store
}

func (e *testEnv) createClick(t *testing.T, clickID string, userID uint, storeID *uint) *models.Click {
	t.Helper()
	click, err := e.clicks.RecordClick(context.Background(), ClickInput{
		ClickID:  clickID,
		UserID:   &userID,
		StoreID:  storeID,
		Provider: constants.NetworkCuelinks,
	})
	if err != nil {
		t.Fatalf("record click failed: %v", err)
	}
	return click
}

func (e *testEnv) walletOf(t *testing.T, userID uint) models.Wallet {
	t.Helper()
	var user models.User
	if err := e.db.First(&user, userID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	return user.Wallet
}

func assertMoney(t *testing.T, label string, got models.Money, want string) {
	t.Helper()
	if !got.Equal(money(want)) {
		t.Fatalf("%s = %s, want %s", label, got.String(), want)
	}
}

type fakeAdapter struct {
	name    string
	build   func(destURL, clickID string, cfg network.Config) (string, error)
	mu      sync.Mutex
	calls   int
	clickID []string
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) BuildDeeplink(_ context.Context, destURL, clickID string, cfg network.Config) (string, error) {
	a.mu.Lock()
	a.calls++
	a.clickID = append(a.clickID, clickID)
	a.mu.Unlock()
	if a.build != nil {
		return a.build(destURL, clickID, cfg)
	}
	return "https://aff.example.net/out?subid=" + clickID, nil
}

type fakeSearcher struct {
	fakeAdapter
	campaigns []network.Campaign
}

func (s *fakeSearcher) SearchCampaigns(_ context.Context, _ string) ([]network.Campaign, error) {
	return s.campaigns, nil
}
