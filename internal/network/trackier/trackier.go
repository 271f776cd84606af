// Package trackier Trackier 发布商 API（vCommission 活动同样经由此网络出链）。
package trackier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/network"
)

const (
	defaultAPIBase = "https://api.trackier.com"
	defaultTimeout = 8 * time.Second
	deeplinkPath   = "/v2/publishers/bulk-deeplink"
)

// vcommission 点击链接保留的参数
var clickParamAllowlist = map[string]struct{}{
	"campaign_id": {}, "pub_id": {}, "click_id": {}, "clickid": {}, "cid": {},
	"txn_id": {}, "txnid": {}, "transaction_id": {}, "order_id": {}, "orderid": {},
	"sale_amount": {}, "amount": {}, "payout": {}, "currency": {},
	"conversion_status": {}, "status": {}, "campaignId": {},
	"p1": {}, "p2": {}, "p3": {}, "p4": {}, "p5": {},
}

// Options 适配器配置
type Options struct {
	Name       string // 注册名，默认 trackier
	APIBase    string
	APIKey     string
	EncodeURL  bool
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Adapter Trackier 适配器
type Adapter struct {
	opts   Options
	client *http.Client
}

type deeplinkRequest struct {
	Deeplinks []deeplinkItem    `json:"deeplinks"`
	EncodeURL bool              `json:"encodeURL"`
	AdnParams map[string]string `json:"adnParams,omitempty"`
}

type deeplinkItem struct {
	URL         string   `json:"url"`
	CampaignIDs []string `json:"campaignIds"`
}

// New 创建适配器
func New(opts Options) *Adapter {
	opts.APIBase = strings.TrimRight(strings.TrimSpace(opts.APIBase), "/")
	if opts.APIBase == "" {
		opts.APIBase = defaultAPIBase
	}
	if opts.Name == "" {
		opts.Name = constants.NetworkTrackier
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{opts: opts, client: client}
}

// Name 网络名
func (a *Adapter) Name() string { return a.opts.Name }

// BuildDeeplink 通过 bulk-deeplink 生成单条深链，点击 ID 放在 adnParams.p1
func (a *Adapter) BuildDeeplink(ctx context.Context, destURL, clickID string, cfg network.Config) (string, error) {
	destURL = strings.TrimSpace(destURL)
	if destURL == "" {
		return "", network.NewError(a.Name(), network.KindBadRequest, "url required")
	}
	if strings.TrimSpace(cfg.CampaignID) == "" {
		return "", network.NewError(a.Name(), network.KindMissingCampaignID, "missing trackier campaign id for this domain")
	}
	if a.opts.APIKey == "" {
		return "", network.NewError(a.Name(), network.KindMissingAccountID, "trackier api key not configured")
	}

	payload := deeplinkRequest{
		Deeplinks: []deeplinkItem{{URL: destURL, CampaignIDs: []string{cfg.CampaignID}}},
		EncodeURL: a.opts.EncodeURL,
	}
	if clickID != "" {
		payload.AdnParams = map[string]string{"p1": clickID}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", &network.Error{Kind: network.KindBadRequest, Provider: a.Name(), Message: "encode request failed", Err: err}
	}

	status, body, err := a.post(ctx, deeplinkPath, raw)
	if err != nil {
		return "", &network.Error{Kind: network.KindProviderFailed, Provider: a.Name(), Message: "request failed", Err: err}
	}
	if status < 200 || status >= 300 {
		msg := network.ResponseMessage(body)
		if msg == "" {
			msg = fmt.Sprintf("trackier error (%d)", status)
		}
		kind := network.KindProviderFailed
		switch status {
		case http.StatusUnauthorized:
			kind = network.KindInvalidCredentials
		case http.StatusForbidden:
			kind = network.KindForbidden
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			kind = network.KindBadRequest
		}
		return "", &network.Error{Kind: kind, Provider: a.Name(), Message: msg, StatusCode: status}
	}

	link := network.FirstString(body,
		[]string{"deeplinks", "0", "url"},
		[]string{"data", "deeplinks", "0", "url"},
	)
	if link == "" {
		return "", network.NewError(a.Name(), network.KindNoDeeplink, "trackier did not return a deeplink")
	}
	return RepairClickURL(link), nil
}

func (a *Adapter) post(ctx context.Context, endpoint string, payload []byte) (int, map[string]interface{}, error) {
	ctx, cancel := network.WithDefaultTimeout(ctx, a.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.opts.APIBase+endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", a.opts.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	body := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			body = map[string]interface{}{"message": strings.TrimSpace(string(raw))}
		}
	}
	return resp.StatusCode, body, nil
}

// RepairClickURL 修复 vcommission 点击链接：只保留已知参数并严格编码 url= 落地页
func RepairClickURL(raw string) string {
	s := strings.TrimSpace(strings.NewReplacer("\r", "", "\n", "", "\t", "", "&amp;", "&").Replace(raw))
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "vcommission.com" && !strings.HasSuffix(host, ".vcommission.com") {
		return u.String()
	}
	query := u.Query()
	dest := strings.TrimSpace(query.Get("url"))
	if dest == "" {
		return u.String()
	}
	if du, err := url.Parse(dest); err == nil {
		dest = du.String()
	}

	kept := url.Values{}
	for k, vs := range query {
		if k == "url" {
			continue
		}
		if _, ok := clickParamAllowlist[k]; ok {
			kept[k] = vs
		}
	}
	qs := kept.Encode()
	if qs != "" {
		qs += "&"
	}
	qs += "url=" + url.QueryEscape(dest)
	return u.Scheme + "://" + u.Host + u.Path + "?" + qs
}
