package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/network"
	"github.com/earnko/internal/repository"

	"gorm.io/gorm"
)

func newLinkServiceForTest(env *testEnv, routes config.NetworksConfig, adapters ...network.Adapter) *LinkService {
	if routes.DefaultProvider == "" {
		routes.DefaultProvider = constants.NetworkCuelinks
	}
	return NewLinkService(LinkServiceDeps{
		Config: config.LinksConfig{
			PublicBaseURL: "https://go.example.com/",
			DefaultMode:   constants.LinkModeLazy,
			FallbackURL:   "https://earnko.example.com/",
			BulkMax:       25,
		},
		LinkRepo:    env.linkRepo,
		StoreRepo:   env.storeRepo,
		ProductRepo: env.productRepo,
		Clicks:      env.clicks,
		Router:      NewProviderRouter(routes, env.notifier),
		Registry:    network.NewRegistry(adapters...),
		Notifier:    env.notifier,
	})
}

func loadClick(t *testing.T, env *testEnv, clickID string) *models.Click {
	t.Helper()
	var click models.Click
	if err := env.db.Where("click_id = ?", clickID).First(&click).Error; err != nil {
		t.Fatalf("load click %s failed: %v", clickID, err)
	}
	return &click
}

func TestIssueLinkEagerRecordsClick(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	store := env.createStore(t, "shop.example.com", "5")
	adapter := &fakeAdapter{name: constants.NetworkCuelinks}
	svc := newLinkServiceForTest(env, config.NetworksConfig{}, adapter)

	res, err := svc.IssueLink(context.Background(), IssueLinkInput{
		UserID: user.ID,
		RawURL: " https://WWW.Shop.Example.com/item?id=9#reviews ",
		Mode:   constants.LinkModeEager,
	})
	if err != nil {
		t.Fatalf("issue link failed: %v", err)
	}
	if res.ClickID == "" || res.Mode != constants.LinkModeEager {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ShareURL != "https://go.example.com/r/"+res.Slug {
		t.Fatalf("share url = %s", res.ShareURL)
	}
	if strings.Contains(res.DestinationURL, "#") {
		t.Fatalf("fragment kept: %s", res.DestinationURL)
	}
	if adapter.calls != 1 || adapter.clickID[0] != res.ClickID {
		t.Fatalf("adapter called %d times with %v", adapter.calls, adapter.clickID)
	}

	click := loadClick(t, env, res.ClickID)
	if click.AffiliateLink != res.GeneratedLink || click.StoreID == nil || *click.StoreID != store.ID {
		t.Fatalf("click not attributed: %+v", click)
	}
	attr, err := env.clicks.ResolveByClickID(res.ClickID)
	if err != nil || attr.UserID == nil || *attr.UserID != user.ID {
		t.Fatalf("resolve click failed: %+v, %v", attr, err)
	}
}

type failingClickRepo struct {
	repository.ClickRepository
}

func (f failingClickRepo) Create(*models.Click) error { return errors.New("clicks table unavailable") }

func (f failingClickRepo) WithTx(*gorm.DB) repository.ClickRepository { return f }

func TestIssueLinkEagerRollsBackLinkWhenClickFails(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	env.createStore(t, "shop.example.com", "5")
	env.clicks = NewClickService(failingClickRepo{ClickRepository: repository.NewClickRepository(env.db)}, env.productRepo)
	svc := newLinkServiceForTest(env, config.NetworksConfig{}, &fakeAdapter{name: constants.NetworkCuelinks})

	_, err := svc.IssueLink(context.Background(), IssueLinkInput{
		UserID: user.ID,
		RawURL: "https://shop.example.com/item?id=9",
		Mode:   constants.LinkModeEager,
	})
	if err == nil {
		t.Fatalf("expected click failure to fail issuance")
	}
	var links, clicks int64
	env.db.Model(&models.UniqueLink{}).Count(&links)
	env.db.Model(&models.Click{}).Count(&clicks)
	if links != 0 || clicks != 0 {
		t.Fatalf("partial issuance persisted: links=%d clicks=%d", links, clicks)
	}
}

func TestIssueLinkLazyDefersAdapterToRedirect(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	store := env.createStore(t, "shop.example.com", "5")
	adapter := &fakeAdapter{name: constants.NetworkCuelinks}
	svc := newLinkServiceForTest(env, config.NetworksConfig{}, adapter)

	res, err := svc.IssueLink(context.Background(), IssueLinkInput{UserID: user.ID, RawURL: "shop.example.com/p/1"})
	if err != nil {
		t.Fatalf("issue link failed: %v", err)
	}
	if res.ClickID != "" || res.Mode != constants.LinkModeLazy || adapter.calls != 0 {
		t.Fatalf("lazy issuance must not call the adapter: %+v calls=%d", res, adapter.calls)
	}

	out := svc.Redirect(context.Background(), RedirectInput{Slug: res.Slug, IPAddress: "10.0.0.1", UserAgent: "test"})
	if out.Fallback || out.ClickID == "" {
		t.Fatalf("unexpected redirect: %+v", out)
	}
	if out.Location != "https://aff.example.net/out?subid="+out.ClickID {
		t.Fatalf("location = %s", out.Location)
	}
	if out.CookieName != "ek_click" || out.CookieMaxAge != 7*24*60*60 {
		t.Fatalf("cookie = %s/%d", out.CookieName, out.CookieMaxAge)
	}
	click := loadClick(t, env, out.ClickID)
	if click.AffiliateLink != out.Location || click.IPAddress != "10.0.0.1" {
		t.Fatalf("click not updated: %+v", click)
	}

	second := svc.Redirect(context.Background(), RedirectInput{Slug: res.Slug})
	if second.ClickID == out.ClickID {
		t.Fatalf("each redirect must mint a new click id")
	}
	link, _ := env.linkRepo.GetBySlug(res.Slug)
	if link.Clicks != 2 {
		t.Fatalf("link clicks = %d, want 2", link.Clicks)
	}
	reloaded, _ := env.storeRepo.GetByID(store.ID)
	if reloaded.TotalClicks != 2 {
		t.Fatalf("store clicks = %d, want 2", reloaded.TotalClicks)
	}
}

func TestRedirectFallbacks(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	adapter := &fakeAdapter{
		name: constants.NetworkCuelinks,
		build: func(string, string, network.Config) (string, error) {
			return "", network.NewError(constants.NetworkCuelinks, network.KindProviderFailed, "upstream 502")
		},
	}
	svc := newLinkServiceForTest(env, config.NetworksConfig{}, adapter)

	res, err := svc.IssueLink(context.Background(), IssueLinkInput{UserID: user.ID, RawURL: "https://shop.example.com/p/2"})
	if err != nil {
		t.Fatalf("issue link failed: %v", err)
	}
	out := svc.Redirect(context.Background(), RedirectInput{Slug: res.Slug})
	if out.Location != res.DestinationURL || out.ClickID == "" {
		t.Fatalf("adapter failure must fall back to destination: %+v", out)
	}

	missing := svc.Redirect(context.Background(), RedirectInput{Slug: "nope"})
	if !missing.Fallback || missing.Location != "https://earnko.example.com/" {
		t.Fatalf("unknown slug must use fallback url: %+v", missing)
	}
}

func TestIssueLinkApprovalRequiredSuggestions(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	searcher := &fakeSearcher{
		fakeAdapter: fakeAdapter{
			name: constants.NetworkCuelinks,
			build: func(string, string, network.Config) (string, error) {
				e := network.NewError(constants.NetworkCuelinks, network.KindApprovalRequired, "campaign needs approval")
				e.Host = "brand.example.com"
				return "", e
			},
		},
		campaigns: []network.Campaign{{ID: "77", Name: "Brand"}},
	}
	svc := newLinkServiceForTest(env, config.NetworksConfig{}, searcher)

	_, err := svc.IssueLink(context.Background(), IssueLinkInput{UserID: user.ID, RawURL: "https://brand.example.com/x", Mode: constants.LinkModeEager})
	var approval *ApprovalRequiredError
	if !errors.As(err, &approval) {
		t.Fatalf("expected approval error, got %v", err)
	}
	if approval.Host != "brand.example.com" || len(approval.Suggestions) != 1 || approval.Suggestions[0].ID != "77" {
		t.Fatalf("unexpected approval payload: %+v", approval)
	}
	if code := LinkErrorCode(err); code != string(network.KindApprovalRequired) {
		t.Fatalf("code = %s", code)
	}
	if ApprovalData(err) == nil {
		t.Fatalf("approval data missing")
	}
	var count int64
	env.db.Model(&models.UniqueLink{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed issuance persisted %d links", count)
	}
}

func TestIssueLinkMissingCampaignFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	adapter := &fakeAdapter{name: constants.NetworkTrackier}
	svc := newLinkServiceForTest(env, config.NetworksConfig{
		Routes: []config.NetworkRoute{{Host: "ajio.com", Provider: constants.NetworkTrackier}},
	}, adapter, &fakeAdapter{name: constants.NetworkCuelinks})

	_, err := svc.IssueLink(context.Background(), IssueLinkInput{UserID: user.ID, RawURL: "https://www.ajio.com/p/123"})
	if kind, ok := network.KindOf(err); !ok || kind != network.KindMissingCampaignID {
		t.Fatalf("expected missing_campaign_id, got %v", err)
	}
	if adapter.calls != 0 {
		t.Fatalf("adapter must not be called without campaign")
	}
	if env.notifier.count(constants.NotifyEventProviderConfig) != 1 {
		t.Fatalf("missing campaign must alert")
	}
}

func TestIssueLinksBulkCap(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	svc := newLinkServiceForTest(env, config.NetworksConfig{}, &fakeAdapter{name: constants.NetworkCuelinks})

	urls := []string{"not-a-url"}
	for i := 0; i < 26; i++ {
		urls = append(urls, fmt.Sprintf("https://shop.example.com/p/%d", i))
	}
	results, err := svc.IssueLinks(context.Background(), user.ID, urls, "")
	if err != nil {
		t.Fatalf("bulk failed: %v", err)
	}
	if len(results) != len(urls) {
		t.Fatalf("results = %d, want %d", len(results), len(urls))
	}
	if results[0].Success || results[0].Code != string(network.KindBadRequest) {
		t.Fatalf("invalid url item: %+v", results[0])
	}
	for i := 1; i < 25; i++ {
		if !results[i].Success {
			t.Fatalf("item %d failed: %+v", i, results[i])
		}
	}
	for i := 25; i < len(results); i++ {
		if results[i].Success || results[i].Code != "bulk_limit_exceeded" {
			t.Fatalf("item %d must exceed bulk limit: %+v", i, results[i])
		}
	}
	if _, err := svc.IssueLinks(context.Background(), user.ID, nil, ""); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("empty bulk must be bad request, got %v", err)
	}
}

func TestIssueLinkByProduct(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, nil)
	store := env.createStore(t, "shop.example.com", "5")
	product := &models.Product{StoreID: store.ID, Title: "Phone", Deeplink: "https://shop.example.com/phone", CategoryKey: "mobiles", IsActive: true}
	if err := env.productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	svc := newLinkServiceForTest(env, config.NetworksConfig{}, &fakeAdapter{name: constants.NetworkCuelinks})

	res, err := svc.IssueLink(context.Background(), IssueLinkInput{UserID: user.ID, ProductID: &product.ID, Mode: constants.LinkModeEager})
	if err != nil {
		t.Fatalf("issue by product failed: %v", err)
	}
	attr, err := env.clicks.ResolveByClickID(res.ClickID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if attr.CategoryKey != "mobiles" || attr.ProductID == nil || *attr.ProductID != product.ID {
		t.Fatalf("product attribution missing: %+v", attr)
	}

	missing := uint(999)
	if _, err := svc.IssueLink(context.Background(), IssueLinkInput{UserID: user.ID, ProductID: &missing}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
