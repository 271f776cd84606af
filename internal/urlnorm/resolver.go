package urlnorm

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/earnko/internal/logger"
)

const (
	defaultMaxHops    = 8
	defaultHopTimeout = 8 * time.Second
)

// ResolveCache 展开结果缓存
type ResolveCache interface {
	GetResolvedURL(ctx context.Context, rawURL string) (string, bool)
	SetResolvedURL(ctx context.Context, rawURL, finalURL string)
}

// Resolver 跟随 HTTP 跳转展开短链/APP 链接
type Resolver struct {
	client     *http.Client
	maxHops    int
	hopTimeout time.Duration
	cache      ResolveCache
	disabled   bool
}

// ResolverOptions 展开配置
type ResolverOptions struct {
	MaxHops    int
	HopTimeout time.Duration
	Disabled   bool
	Cache      ResolveCache
	Transport  http.RoundTripper
}

// NewResolver 创建展开器
func NewResolver(opts ResolverOptions) *Resolver {
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}
	hopTimeout := opts.HopTimeout
	if hopTimeout <= 0 {
		hopTimeout = defaultHopTimeout
	}
	return &Resolver{
		client: &http.Client{
			Transport: opts.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxHops:    maxHops,
		hopTimeout: hopTimeout,
		cache:      opts.Cache,
		disabled:   opts.Disabled,
	}
}

// ResolveRedirectChain 逐跳跟随 3xx Location；任何网络错误或超时都返回最后已知的链接
func (r *Resolver) ResolveRedirectChain(ctx context.Context, rawURL string) string {
	if r == nil || r.disabled {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return rawURL
	}
	if r.cache != nil {
		if cached, ok := r.cache.GetResolvedURL(ctx, rawURL); ok {
			return cached
		}
	}

	current := rawURL
	complete := false
	for hop := 0; hop < r.maxHops; hop++ {
		next, ok := r.step(ctx, current)
		if !ok {
			complete = next == ""
			break
		}
		current = next
	}

	if complete && r.cache != nil {
		r.cache.SetResolvedURL(ctx, rawURL, current)
	}
	return current
}

// step 返回 (下一跳, true)；无跳转返回 ("", false)；失败返回 (current, false)
func (r *Resolver) step(ctx context.Context, current string) (string, bool) {
	hopCtx, cancel := context.WithTimeout(ctx, r.hopTimeout)
	defer cancel()

	status, location, err := r.do(hopCtx, http.MethodHead, current)
	if err != nil {
		logger.Debugw("url_resolve_hop_failed", "url", current, "error", err)
		return current, false
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusForbidden || status == http.StatusBadRequest {
		status, location, err = r.do(hopCtx, http.MethodGet, current)
		if err != nil {
			logger.Debugw("url_resolve_hop_failed", "url", current, "method", "GET", "error", err)
			return current, false
		}
	}
	if status < 300 || status >= 400 || location == "" {
		return "", false
	}
	base, err := url.Parse(current)
	if err != nil {
		return current, false
	}
	ref, err := url.Parse(location)
	if err != nil {
		return current, false
	}
	return base.ResolveReference(ref).String(), true
}

func (r *Resolver) do(ctx context.Context, method, target string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; earnko-link-resolver/1.0)")
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Location"), nil
}
