// Package extrape Extrape 的 Flipkart 出链：本地按模板追加 affid 与 affExtParam 参数。
package extrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/network"
)

const supportedDomain = "flipkart.com"

// Options 适配器配置
type Options struct {
	AffID        string
	AffExtParam1 string
}

// Adapter Extrape 适配器
type Adapter struct {
	opts Options
}

// New 创建适配器
func New(opts Options) *Adapter {
	return &Adapter{opts: opts}
}

// Name 网络名
func (a *Adapter) Name() string { return constants.NetworkExtrape }

// BuildDeeplink 追加 affid / affExtParam1 / affExtParam2=clickID；cfg.AccountID 优先于默认 affid
func (a *Adapter) BuildDeeplink(_ context.Context, destURL, clickID string, cfg network.Config) (string, error) {
	if strings.TrimSpace(destURL) == "" {
		return "", network.NewError(a.Name(), network.KindBadRequest, "url required")
	}
	affID := strings.TrimSpace(cfg.AccountID)
	if affID == "" {
		affID = a.opts.AffID
	}
	if affID == "" {
		return "", network.NewError(a.Name(), network.KindMissingAccountID, "missing extrape affid")
	}
	if strings.TrimSpace(clickID) == "" {
		return "", network.NewError(a.Name(), network.KindBadRequest, "click id required")
	}

	u, err := url.Parse(destURL)
	if err != nil || u.Host == "" {
		return "", network.NewError(a.Name(), network.KindBadRequest, "invalid url")
	}
	host := strings.ToLower(u.Hostname())
	if host != supportedDomain && !strings.HasSuffix(host, "."+supportedDomain) {
		return "", network.NewError(a.Name(), network.KindBadRequest, "extrape only supports flipkart.com")
	}

	q := u.Query()
	q.Set("affid", affID)
	if a.opts.AffExtParam1 != "" {
		q.Set("affExtParam1", a.opts.AffExtParam1)
	}
	q.Set("affExtParam2", clickID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
