package service

import (
	"context"
	"sort"
	"strings"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/network"
	"github.com/earnko/internal/notify"
	"github.com/earnko/internal/urlnorm"
)

type providerRoute struct {
	host       string
	provider   string
	campaignID string
}

// ProviderRouter 按落地页域名选择联盟网络并提供生成深链所需配置
type ProviderRouter struct {
	defaultProvider string
	routes          []providerRoute
	extrapeAffID    string
	cuelinksChannel string
	notifier        notify.Notifier
}

// RouteDecision 路由结果
type RouteDecision struct {
	Provider string
	Config   network.Config
}

// NewProviderRouter 创建路由器；路由按域名长度倒序匹配，最具体的规则优先
func NewProviderRouter(cfg config.NetworksConfig, notifier notify.Notifier) *ProviderRouter {
	routes := make([]providerRoute, 0, len(cfg.Routes))
	for _, r := range cfg.Routes {
		host := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(r.Host)), "www.")
		provider := strings.ToLower(strings.TrimSpace(r.Provider))
		if host == "" || provider == "" {
			continue
		}
		routes = append(routes, providerRoute{host: host, provider: provider, campaignID: strings.TrimSpace(r.CampaignID)})
	}
	sort.SliceStable(routes, func(i, j int) bool { return len(routes[i].host) > len(routes[j].host) })

	def := strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	if def == "" {
		def = constants.NetworkCuelinks
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &ProviderRouter{
		defaultProvider: def,
		routes:          routes,
		extrapeAffID:    strings.TrimSpace(cfg.Extrape.AffID),
		cuelinksChannel: strings.TrimSpace(cfg.Cuelinks.ChannelID),
		notifier:        notifier,
	}
}

func (r *ProviderRouter) match(host string) (providerRoute, bool) {
	for _, route := range r.routes {
		if urlnorm.HostMatches(host, route.host) {
			return route, true
		}
	}
	return providerRoute{}, false
}

// SelectProvider 按域名选择网络，无匹配时返回默认网络
func (r *ProviderRouter) SelectProvider(rawURL string) (string, error) {
	host := urlnorm.Host(rawURL)
	if host == "" {
		return "", ErrInvalidURL
	}
	if route, ok := r.match(host); ok {
		return route.provider, nil
	}
	return r.defaultProvider, nil
}

// SelectProviderConfig 返回网络配置；必需配置缺失时返回 missing_campaign_id / missing_account_id
func (r *ProviderRouter) SelectProviderConfig(ctx context.Context, provider, rawURL string) (network.Config, error) {
	return r.configFor(ctx, provider, rawURL, "")
}

// Route 综合商家配置做路由：商家指定了网络时优先使用，否则按域名表
func (r *ProviderRouter) Route(ctx context.Context, rawURL string, store *models.Store) (RouteDecision, error) {
	provider, err := r.SelectProvider(rawURL)
	if err != nil {
		return RouteDecision{}, err
	}
	storeCampaign := ""
	if store != nil {
		if p := strings.ToLower(strings.TrimSpace(store.AffiliateNetwork)); p != "" {
			provider = p
		}
		storeCampaign = strings.TrimSpace(store.CampaignID)
	}
	cfg, err := r.configFor(ctx, provider, rawURL, storeCampaign)
	if err != nil {
		return RouteDecision{Provider: provider}, err
	}
	return RouteDecision{Provider: provider, Config: cfg}, nil
}

func (r *ProviderRouter) configFor(ctx context.Context, provider, rawURL, storeCampaign string) (network.Config, error) {
	host := urlnorm.Host(rawURL)
	cfg := network.Config{}
	if route, ok := r.match(host); ok && route.provider == provider {
		cfg.CampaignID = route.campaignID
	}
	if cfg.CampaignID == "" {
		cfg.CampaignID = storeCampaign
	}

	switch provider {
	case constants.NetworkTrackier, constants.NetworkVcommission:
		if cfg.CampaignID == "" {
			return cfg, r.configMissing(ctx, provider, host, network.KindMissingCampaignID, ErrMissingCampaignID)
		}
	case constants.NetworkExtrape:
		cfg.AccountID = r.extrapeAffID
		if cfg.AccountID == "" {
			return cfg, r.configMissing(ctx, provider, host, network.KindMissingAccountID, ErrMissingAccountID)
		}
	case constants.NetworkCuelinks:
		cfg.ChannelID = r.cuelinksChannel
	}
	return cfg, nil
}

func (r *ProviderRouter) configMissing(ctx context.Context, provider, host string, kind network.Kind, cause error) error {
	logger.Warnw("provider_config_missing", "provider", provider, "host", host, "kind", string(kind))
	emitEvent(ctx, r.notifier, notify.Event{
		Type:    constants.NotifyEventProviderConfig,
		Level:   constants.NotifyLevelWarn,
		Message: provider + " has no " + string(kind) + " configured for " + host,
		Key:     host,
		Fields:  map[string]interface{}{"provider": provider, "host": host, "kind": string(kind)},
	})
	return &network.Error{Kind: kind, Provider: provider, Host: host, Message: cause.Error(), Err: cause}
}
