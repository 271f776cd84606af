package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/earnko/internal/cache"
	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/network"
	"github.com/earnko/internal/notify"
	"github.com/earnko/internal/repository"
	"github.com/earnko/internal/urlnorm"

	"gorm.io/gorm"
)

const (
	defaultAdapterTimeout  = 8 * time.Second
	defaultBulkMax         = 25
	defaultCookieDays      = 30
	approvalSuggestionsMax = 30
)

// DeeplinkPolicy 深链生成失败时的处理策略
type DeeplinkPolicy int

const (
	// PolicyStrict 适配器错误直接返回（签发链接）
	PolicyStrict DeeplinkPolicy = iota
	// PolicyFallback 失败时退回落地页（点击跳转）
	PolicyFallback
)

// RedirectResolver 短链展开
type RedirectResolver interface {
	ResolveRedirectChain(ctx context.Context, rawURL string) string
}

// ApprovalRequiredError 商家需要在联盟网络申请审核，附带候选活动
type ApprovalRequiredError struct {
	Provider    string
	Host        string
	Suggestions []network.Campaign
	Err         error
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("%s: campaign approval required for %s", e.Provider, e.Host)
}

func (e *ApprovalRequiredError) Unwrap() error { return e.Err }

// LinkService 推广链接签发与点击跳转
type LinkService struct {
	cfg         config.LinksConfig
	linkRepo    repository.LinkRepository
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
	clicks      *ClickService
	router      *ProviderRouter
	registry    *network.Registry
	resolver    RedirectResolver
	notifier    notify.Notifier
	timeout     time.Duration
}

// LinkServiceDeps 链接服务依赖
type LinkServiceDeps struct {
	Config         config.LinksConfig
	LinkRepo       repository.LinkRepository
	StoreRepo      repository.StoreRepository
	ProductRepo    repository.ProductRepository
	Clicks         *ClickService
	Router         *ProviderRouter
	Registry       *network.Registry
	Resolver       RedirectResolver
	Notifier       notify.Notifier
	AdapterTimeout time.Duration
}

// NewLinkService 创建链接服务
func NewLinkService(deps LinkServiceDeps) *LinkService {
	timeout := deps.AdapterTimeout
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &LinkService{
		cfg:         deps.Config,
		linkRepo:    deps.LinkRepo,
		storeRepo:   deps.StoreRepo,
		productRepo: deps.ProductRepo,
		clicks:      deps.Clicks,
		router:      deps.Router,
		registry:    deps.Registry,
		resolver:    deps.Resolver,
		notifier:    notifier,
		timeout:     timeout,
	}
}

// IssueLinkInput 签发链接输入
type IssueLinkInput struct {
	UserID    uint
	RawURL    string
	StoreID   *uint
	ProductID *uint
	Mode      string
}

// IssueLinkResult 签发结果；lazy 模式下 ClickID 为空，点击时才生成
type IssueLinkResult struct {
	LinkID         uint   `json:"link_id"`
	ShareURL       string `json:"share_url"`
	Provider       string `json:"provider"`
	Slug           string `json:"slug"`
	ClickID        string `json:"click_id,omitempty"`
	Mode           string `json:"mode"`
	DestinationURL string `json:"destination_url"`
	GeneratedLink  string `json:"generated_link,omitempty"`
}

// BulkLinkResult 批量签发单项结果
type BulkLinkResult struct {
	InputURL string           `json:"input_url"`
	Success  bool             `json:"success"`
	Result   *IssueLinkResult `json:"result,omitempty"`
	Code     string           `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
	Data     interface{}      `json:"data,omitempty"`
}

// IssueLink 规范化链接、选择网络并生成分享链接
func (s *LinkService) IssueLink(ctx context.Context, input IssueLinkInput) (*IssueLinkResult, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthorized
	}
	mode := s.resolveMode(input.Mode)

	var product *models.Product
	if input.ProductID != nil && *input.ProductID != 0 {
		p, err := s.productRepo.GetByID(*input.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.IsActive {
			return nil, ErrProductNotFound
		}
		product = p
		if strings.TrimSpace(input.RawURL) == "" {
			input.RawURL = p.Deeplink
		}
		if input.StoreID == nil {
			storeID := p.StoreID
			input.StoreID = &storeID
		}
	}
	if strings.TrimSpace(input.RawURL) == "" {
		return nil, fmt.Errorf("%w: url required", ErrBadRequest)
	}

	original, err := urlnorm.Normalize(input.RawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	destination := s.prepareDestination(ctx, original)

	store, err := s.resolveStore(input.StoreID, destination)
	if err != nil {
		return nil, err
	}
	decision, err := s.router.Route(ctx, destination, store)
	if err != nil {
		return nil, err
	}
	adapter, ok := s.registry.Get(decision.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnsupported, decision.Provider)
	}

	slug, err := s.generateSlug()
	if err != nil {
		return nil, err
	}

	link := &models.UniqueLink{
		UserID:         input.UserID,
		Slug:           slug,
		Mode:           mode,
		Provider:       decision.Provider,
		CampaignID:     decision.Config.CampaignID,
		OriginalURL:    original,
		DestinationURL: destination,
		Metadata: models.JSON{
			"original_url": original,
			"resolved_url": destination,
		},
	}
	if store != nil {
		link.StoreID = &store.ID
	}
	if product != nil {
		link.ProductID = &product.ID
		link.Metadata["category_key"] = product.CategoryKey
	}

	var clickID string
	if mode == constants.LinkModeEager {
		clickID = NewClickID()
		generated, err := s.buildDeeplink(ctx, adapter, destination, clickID, decision.Config, PolicyStrict)
		if err != nil {
			return nil, err
		}
		link.GeneratedLink = generated
		link.IssueClickID = clickID
	}

	// 即时模式下链接与其点击同事务提交，避免链接引用不存在的点击
	err = s.linkRepo.Transaction(func(db *gorm.DB) error {
		if err := s.linkRepo.WithTx(db).Create(link); err != nil {
			return err
		}
		if mode != constants.LinkModeEager {
			return nil
		}
		_, err := s.clicks.RecordClickTx(db, ClickInput{
			ClickID:       clickID,
			UserID:        &link.UserID,
			StoreID:       link.StoreID,
			ProductID:     link.ProductID,
			LinkID:        &link.ID,
			Slug:          slug,
			Provider:      link.Provider,
			AffiliateLink: link.GeneratedLink,
			Metadata:      clickMetadata(link),
		})
		return err
	})
	if err != nil {
		logger.Errorw("link_issue_persist_failed", "user_id", input.UserID, "slug", slug, "mode", mode, "error", err)
		return nil, err
	}

	logger.Infow("link_issued",
		"user_id", input.UserID,
		"slug", slug,
		"provider", link.Provider,
		"mode", mode,
		"store_id", link.StoreID,
	)
	return &IssueLinkResult{
		LinkID:         link.ID,
		ShareURL:       s.shareURL(slug),
		Provider:       link.Provider,
		Slug:           slug,
		ClickID:        clickID,
		Mode:           mode,
		DestinationURL: destination,
		GeneratedLink:  link.GeneratedLink,
	}, nil
}

// IssueLinks 批量签发，单项失败不影响其余；超过上限的条目直接标记失败
func (s *LinkService) IssueLinks(ctx context.Context, userID uint, urls []string, mode string) ([]BulkLinkResult, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: urls required", ErrBadRequest)
	}
	limit := s.cfg.BulkMax
	if limit <= 0 {
		limit = defaultBulkMax
	}
	results := make([]BulkLinkResult, 0, len(urls))
	for i, raw := range urls {
		item := BulkLinkResult{InputURL: raw}
		if i >= limit {
			item.Code, item.Message = "bulk_limit_exceeded", ErrBulkLimitExceeded.Error()
			results = append(results, item)
			continue
		}
		if ctx.Err() != nil {
			item.Code, item.Message = "provider_failed", ctx.Err().Error()
			results = append(results, item)
			continue
		}
		res, err := s.IssueLink(ctx, IssueLinkInput{UserID: userID, RawURL: raw, Mode: mode})
		if err != nil {
			item.Code, item.Message, item.Data = LinkErrorCode(err), err.Error(), ApprovalData(err)
			results = append(results, item)
			continue
		}
		item.Success = true
		item.Result = res
		results = append(results, item)
	}
	return results, nil
}

// ListLinks 用户的分享链接
func (s *LinkService) ListLinks(filter repository.LinkListFilter) ([]models.UniqueLink, int64, error) {
	return s.linkRepo.ListByUser(filter)
}

func (s *LinkService) shareURL(slug string) string {
	base := strings.TrimRight(strings.TrimSpace(s.cfg.PublicBaseURL), "/")
	return base + "/r/" + slug
}

func (s *LinkService) resolveMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == constants.LinkModeEager || mode == constants.LinkModeLazy {
		return mode
	}
	if strings.EqualFold(s.cfg.DefaultMode, constants.LinkModeEager) {
		return constants.LinkModeEager
	}
	return constants.LinkModeLazy
}

// prepareDestination 展开短链后再做商家改写；展开失败保留原链接
func (s *LinkService) prepareDestination(ctx context.Context, normalized string) string {
	dest := normalized
	if s.resolver != nil {
		resolved := s.resolver.ResolveRedirectChain(ctx, normalized)
		if n, err := urlnorm.Normalize(resolved); err == nil {
			dest = n
		}
	}
	return urlnorm.MakeProviderSafe(dest)
}

func (s *LinkService) resolveStore(storeID *uint, destination string) (*models.Store, error) {
	if storeID != nil && *storeID != 0 {
		store, err := s.storeRepo.GetByID(*storeID)
		if err != nil {
			return nil, err
		}
		if store == nil {
			return nil, ErrStoreNotFound
		}
		if !store.IsActive {
			return nil, ErrStoreInactive
		}
		return store, nil
	}
	store, err := s.storeRepo.FindByHost(urlnorm.Host(destination))
	if err != nil {
		return nil, err
	}
	if store != nil && !store.IsActive {
		return nil, nil
	}
	return store, nil
}

// buildDeeplink 统一的适配器调用；policy 决定失败时返回错误还是退回落地页
func (s *LinkService) buildDeeplink(ctx context.Context, adapter network.Adapter, destination, clickID string, cfg network.Config, policy DeeplinkPolicy) (string, error) {
	callCtx, cancel := network.WithDefaultTimeout(ctx, s.timeout)
	defer cancel()

	link, err := adapter.BuildDeeplink(callCtx, destination, clickID, cfg)
	if err == nil && strings.TrimSpace(link) == "" {
		err = network.NewError(adapter.Name(), network.KindNoDeeplink, "empty deeplink")
	}
	if err == nil {
		return link, nil
	}

	s.alertAdapterError(ctx, adapter.Name(), destination, err)
	if policy == PolicyFallback {
		logger.Warnw("deeplink_fallback_to_destination",
			"provider", adapter.Name(),
			"click_id", clickID,
			"error", err,
		)
		return destination, nil
	}
	if kind, ok := network.KindOf(err); ok && kind == network.KindApprovalRequired {
		return "", s.approvalError(ctx, adapter.Name(), destination, err)
	}
	return "", err
}

func (s *LinkService) alertAdapterError(ctx context.Context, provider, destination string, err error) {
	kind, ok := network.KindOf(err)
	if !ok {
		return
	}
	host := urlnorm.Host(destination)
	switch {
	case network.IsAuthKind(kind):
		logger.Errorw("provider_auth_failed", "provider", provider, "kind", string(kind), "error", err)
		emitEvent(ctx, s.notifier, notify.Event{
			Type:    constants.NotifyEventProviderAuth,
			Level:   constants.NotifyLevelError,
			Message: provider + " rejected credentials: " + string(kind),
			Key:     provider,
			Fields:  map[string]interface{}{"provider": provider, "kind": string(kind)},
		})
	case network.IsConfigKind(kind):
		logger.Warnw("provider_config_missing", "provider", provider, "host", host, "kind", string(kind))
		emitEvent(ctx, s.notifier, notify.Event{
			Type:    constants.NotifyEventProviderConfig,
			Level:   constants.NotifyLevelWarn,
			Message: provider + " has no " + string(kind) + " configured for " + host,
			Key:     host,
			Fields:  map[string]interface{}{"provider": provider, "host": host, "kind": string(kind)},
		})
	}
}

// approvalError 查找同域名的候选活动，供调用方引导申请
func (s *LinkService) approvalError(ctx context.Context, provider, destination string, cause error) error {
	host := urlnorm.Host(destination)
	var ne *network.Error
	if errors.As(cause, &ne) && ne.Host != "" {
		host = ne.Host
	}
	out := &ApprovalRequiredError{Provider: provider, Host: host, Err: cause}
	if host == "" {
		return out
	}
	for _, name := range s.registry.Names() {
		adapter, _ := s.registry.Get(name)
		searcher, ok := adapter.(network.CampaignSearcher)
		if !ok {
			continue
		}
		searchCtx, cancel := network.WithDefaultTimeout(ctx, s.timeout)
		campaigns, err := searcher.SearchCampaigns(searchCtx, host)
		cancel()
		if err != nil {
			logger.Warnw("approval_suggestion_search_failed", "provider", name, "host", host, "error", err)
			continue
		}
		out.Suggestions = append(out.Suggestions, campaigns...)
		if len(out.Suggestions) >= approvalSuggestionsMax {
			out.Suggestions = out.Suggestions[:approvalSuggestionsMax]
			break
		}
	}
	return out
}

// RedirectInput 点击跳转输入
type RedirectInput struct {
	Slug      string
	IPAddress string
	UserAgent string
	Referrer  string
}

// RedirectResult 跳转结果；始终包含可跳转的 Location
type RedirectResult struct {
	Location     string
	ClickID      string
	CookieName   string
	CookieMaxAge int
	Fallback     bool
}

// Redirect 点击跳转：记录点击、计数、生成或复用深链；任何内部错误都退回兜底地址
func (s *LinkService) Redirect(ctx context.Context, input RedirectInput) RedirectResult {
	fallback := RedirectResult{Location: s.fallbackURL(), Fallback: true}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return fallback
	}

	state, err := s.loadLinkState(ctx, slug)
	if err != nil {
		logger.Errorw("redirect_link_lookup_failed", "slug", slug, "error", err)
		return fallback
	}
	if state == nil {
		logger.Infow("redirect_link_not_found", "slug", slug)
		return fallback
	}

	result := RedirectResult{
		Location:     state.DestinationURL,
		CookieName:   s.cookieName(),
		CookieMaxAge: s.cookieDays(state.CookieDays) * 24 * 60 * 60,
	}

	click, err := s.clicks.RecordClick(ctx, ClickInput{
		UserID:    &state.UserID,
		StoreID:   state.StoreID,
		ProductID: state.ProductID,
		LinkID:    &state.LinkID,
		Slug:      state.Slug,
		Provider:  state.Provider,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Referrer:  input.Referrer,
		Metadata: models.JSON{
			"mode":            state.Mode,
			"destination_url": state.DestinationURL,
			"campaign_id":     state.CampaignID,
			"category_key":    state.CategoryKey,
		},
	})
	if err != nil {
		if state.Mode == constants.LinkModeEager && state.GeneratedLink != "" {
			result.Location = state.GeneratedLink
		}
		return result
	}
	result.ClickID = click.ClickID
	s.countClick(state)

	switch {
	case state.Mode == constants.LinkModeEager && state.GeneratedLink != "":
		result.Location = state.GeneratedLink
	default:
		result.Location = s.buildAtClick(ctx, state, click.ClickID)
	}
	if result.Location != state.DestinationURL {
		if err := s.clicks.AttachGeneratedLink(click.ClickID, result.Location); err != nil {
			logger.Warnw("redirect_attach_link_failed", "click_id", click.ClickID, "error", err)
		}
	}
	if strings.TrimSpace(result.Location) == "" {
		return RedirectResult{Location: s.fallbackURL(), ClickID: result.ClickID, Fallback: true}
	}
	return result
}

func (s *LinkService) buildAtClick(ctx context.Context, state *cache.LinkState, clickID string) string {
	adapter, ok := s.registry.Get(state.Provider)
	if !ok {
		logger.Warnw("redirect_provider_unsupported", "slug", state.Slug, "provider", state.Provider)
		return state.DestinationURL
	}
	cfg, err := s.router.configFor(ctx, state.Provider, state.DestinationURL, state.CampaignID)
	if err != nil {
		logger.Warnw("redirect_provider_config_missing", "slug", state.Slug, "provider", state.Provider, "error", err)
		return state.DestinationURL
	}
	link, _ := s.buildDeeplink(ctx, adapter, state.DestinationURL, clickID, cfg, PolicyFallback)
	return link
}

func (s *LinkService) countClick(state *cache.LinkState) {
	if err := s.linkRepo.IncrementClicks(state.LinkID); err != nil {
		logger.Warnw("redirect_link_count_failed", "link_id", state.LinkID, "error", err)
	}
	if state.StoreID != nil {
		if err := s.storeRepo.IncrementClicks(*state.StoreID); err != nil {
			logger.Warnw("redirect_store_count_failed", "store_id", *state.StoreID, "error", err)
		}
	}
}

func (s *LinkService) loadLinkState(ctx context.Context, slug string) (*cache.LinkState, error) {
	if state, hit, err := cache.GetLinkState(ctx, slug); err == nil && hit {
		return state, nil
	} else if err != nil {
		logger.Warnw("link_cache_get_failed", "slug", slug, "error", err)
	}
	link, err := s.linkRepo.GetBySlug(slug)
	if err != nil || link == nil {
		return nil, err
	}
	state := cache.BuildLinkState(link)
	ttl := time.Duration(s.cfg.CacheTTLSeconds) * time.Second
	if err := cache.SetLinkState(ctx, state, ttl); err != nil {
		logger.Warnw("link_cache_set_failed", "slug", slug, "error", err)
	}
	return state, nil
}

func (s *LinkService) fallbackURL() string {
	if u := strings.TrimSpace(s.cfg.FallbackURL); u != "" {
		return u
	}
	return "/"
}

func (s *LinkService) cookieName() string {
	if name := strings.TrimSpace(s.cfg.CookieName); name != "" {
		return name
	}
	return "ek_click"
}

func (s *LinkService) cookieDays(storeDays int) int {
	if storeDays > 0 {
		return storeDays
	}
	if s.cfg.DefaultCookieDays > 0 {
		return s.cfg.DefaultCookieDays
	}
	return defaultCookieDays
}

func clickMetadata(link *models.UniqueLink) models.JSON {
	return models.JSON{
		"mode":            link.Mode,
		"original_url":    link.OriginalURL,
		"destination_url": link.DestinationURL,
		"campaign_id":     link.CampaignID,
		"category_key":    link.Metadata.String("category_key"),
	}
}

// LinkErrorCode 链接签发错误对应的对外错误码
func LinkErrorCode(err error) string {
	var approval *ApprovalRequiredError
	if errors.As(err, &approval) {
		return string(network.KindApprovalRequired)
	}
	if kind, ok := network.KindOf(err); ok {
		return string(kind)
	}
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidURL):
		return string(network.KindBadRequest)
	case errors.Is(err, ErrStoreNotFound), errors.Is(err, ErrProductNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreInactive):
		return "store_inactive"
	case errors.Is(err, ErrProviderUnsupported):
		return "provider_unsupported"
	default:
		return string(network.KindProviderFailed)
	}
}

// ApprovalData 审批错误的附加数据，其他错误返回 nil
func ApprovalData(err error) interface{} {
	var approval *ApprovalRequiredError
	if !errors.As(err, &approval) {
		return nil
	}
	return map[string]interface{}{
		"host":        approval.Host,
		"provider":    approval.Provider,
		"suggestions": approval.Suggestions,
	}
}
