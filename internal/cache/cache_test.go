package cache

import (
	"context"
	"testing"
	"time"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init: %v", err)
	}
	ctx := context.Background()
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}
	if err := SetLinkState(ctx, &LinkState{Slug: "abc"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	state, hit, err := GetLinkState(ctx, "abc")
	if err != nil || hit || state != nil {
		t.Fatalf("expected miss, got %v %v %v", state, hit, err)
	}
	rc := NewResolveCache(0)
	rc.SetResolvedURL(ctx, "https://fkrt.it/x", "https://www.flipkart.com/p")
	if _, ok := rc.GetResolvedURL(ctx, "https://fkrt.it/x"); ok {
		t.Fatalf("expected resolve miss")
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	Use(nil, "earn")
	t.Cleanup(func() { Use(nil, "") })
	if got := BuildKey("link:slug:abc"); got != "earn:link:slug:abc" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := BuildKey("  "); got != "earn" {
		t.Fatalf("unexpected empty key %s", got)
	}
}

func TestBuildLinkStateCarriesCookieDays(t *testing.T) {
	storeID := uint(3)
	state := BuildLinkState(&models.UniqueLink{
		ID:             9,
		UserID:         4,
		StoreID:        &storeID,
		Slug:           "Zx9",
		Mode:           "lazy",
		Provider:       "cuelinks",
		DestinationURL: "https://www.myntra.com/123",
		Store:          &models.Store{CookieDuration: 7},
	})
	if state.LinkID != 9 || state.CookieDays != 7 || *state.StoreID != 3 {
		t.Fatalf("unexpected state %+v", state)
	}
	if resolveKey("a") == resolveKey("b") {
		t.Fatalf("resolve keys must differ")
	}
}
