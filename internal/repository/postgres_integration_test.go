//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresConcurrentWalletIncrements(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	user := &models.User{Email: "pg@example.com", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	repo := NewUserRepository(db)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.IncrementWallet(user.ID, WalletDelta{PendingCashback: models.NewMoneyFromFloat(1.25)}); err != nil {
				t.Errorf("increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Wallet.PendingCashback.String() != "25.00" {
		t.Fatalf("pending want 25.00 got %s", got.Wallet.PendingCashback)
	}
}

func TestPostgresOrderKeyUnique(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewTransactionRepository(db)
	first := &models.Transaction{OrderKey: "cuelinks:O1", OrderID: "O1", Network: "cuelinks", Status: constants.TransactionStatusPending}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	dup := &models.Transaction{OrderKey: "cuelinks:O1", OrderID: "O1", Network: "cuelinks", Status: constants.TransactionStatusPending}
	if err := repo.Create(dup); !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
