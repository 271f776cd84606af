// Package cuelinks Cuelinks 联盟网络：links.json 生成短链，campaigns.json 检索活动。
package cuelinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/network"
)

const (
	defaultAPIBase = "https://www.cuelinks.com/api/v2"
	defaultTimeout = 8 * time.Second
	campaignPage   = 30

	approvalMarker = "campaign needs approval"
)

// Options 适配器配置
type Options struct {
	APIBase    string
	APIKey     string
	ChannelID  string
	CountryID  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Adapter Cuelinks 适配器
type Adapter struct {
	opts   Options
	client *http.Client
}

// New 创建适配器
func New(opts Options) *Adapter {
	opts.APIBase = strings.TrimRight(strings.TrimSpace(opts.APIBase), "/")
	if opts.APIBase == "" {
		opts.APIBase = defaultAPIBase
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
func (a *Adapter) Name() string { return constants.NetworkCuelinks }

// BuildDeeplink 生成带 subid 的短链，优先 short_url，其次 affiliate_url
func (a *Adapter) BuildDeeplink(ctx context.Context, destURL, clickID string, cfg network.Config) (string, error) {
	if strings.TrimSpace(destURL) == "" {
		return "", network.NewError(a.Name(), network.KindBadRequest, "url required")
	}
	if a.opts.APIKey == "" {
		return "", network.NewError(a.Name(), network.KindMissingAccountID, "cuelinks api key not configured")
	}

	params := url.Values{}
	params.Set("url", destURL)
	params.Set("shorten", "true")
	if clickID != "" {
		params.Set("subid", clickID)
	}
	channel := cfg.ChannelID
	if channel == "" {
		channel = a.opts.ChannelID
	}
	if channel != "" {
		params.Set("channel_id", channel)
	}

	body, err := a.get(ctx, "/links.json?"+params.Encode(), destURL)
	if err != nil {
		return "", err
	}

	link := network.FirstString(body,
		[]string{"short_url"},
		[]string{"shortened_url"},
		[]string{"link", "short_url"},
		[]string{"link", "shortened_url"},
		[]string{"data", "short_url"},
		[]string{"data", "shortened_url"},
		[]string{"affiliate_url"},
		[]string{"link", "affiliate_url"},
		[]string{"data", "affiliate_url"},
	)
	if link != "" {
		return link, nil
	}
	if msg := network.ResponseMessage(body); isApprovalMessage(msg) {
		return "", approvalError(destURL, msg, http.StatusOK)
	}
	return "", network.NewError(a.Name(), network.KindNoDeeplink, "no short_url in response")
}

// SearchCampaigns 按关键字检索活动
func (a *Adapter) SearchCampaigns(ctx context.Context, term string) ([]network.Campaign, error) {
	if a.opts.APIKey == "" {
		return nil, network.NewError(a.Name(), network.KindMissingAccountID, "cuelinks api key not configured")
	}
	params := url.Values{}
	if term = strings.TrimSpace(term); term != "" {
		params.Set("search_term", term)
	}
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(campaignPage))
	if a.opts.CountryID != "" {
		params.Set("country_id", a.opts.CountryID)
	}
	body, err := a.get(ctx, "/campaigns.json?"+params.Encode(), "")
	if err != nil {
		return nil, err
	}
	items := network.ReadArray(body, "campaigns")
	if items == nil {
		items = network.ReadArray(body, "data")
	}
	campaigns := make([]network.Campaign, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		campaigns = append(campaigns, network.Campaign{
			ID:     network.ReadString(m, "id"),
			Name:   network.ReadString(m, "name"),
			URL:    network.FirstString(m, []string{"url"}, []string{"landing_url"}),
			Domain: network.FirstString(m, []string{"domain"}, []string{"url"}),
			Status: network.FirstString(m, []string{"status"}, []string{"approval_status"}),
		})
	}
	return campaigns, nil
}

// authHeaders 依次尝试的鉴权头写法，401/403 时换下一种
func (a *Adapter) authHeaders() []http.Header {
	key := a.opts.APIKey
	return []http.Header{
		{"Token": []string{key}},
		{"Authorization": []string{"Token token=" + key}},
		{"Authorization": []string{"Bearer " + key}},
	}
}

func (a *Adapter) get(ctx context.Context, endpoint, destURL string) (map[string]interface{}, error) {
	ctx, cancel := network.WithDefaultTimeout(ctx, a.opts.Timeout)
	defer cancel()

	var lastStatus int
	var lastMsg string
	for i, hdr := range a.authHeaders() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.opts.APIBase+endpoint, nil)
		if err != nil {
			return nil, &network.Error{Kind: network.KindBadRequest, Provider: a.Name(), Message: "build request failed", Err: err}
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range hdr {
			req.Header[k] = v
		}

		status, body, err := a.do(req)
		if err != nil {
			return nil, &network.Error{Kind: network.KindProviderFailed, Provider: a.Name(), Message: "request failed", Err: err}
		}
		if status >= 200 && status < 300 {
			return body, nil
		}

		msg := network.ResponseMessage(body)
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			if isApprovalMessage(msg) {
				return nil, approvalError(destURL, msg, status)
			}
			lastStatus, lastMsg = status, msg
			logger.Debugw("cuelinks_auth_variant_rejected", "variant", i, "status", status)
			continue
		}
		if isApprovalMessage(msg) {
			return nil, approvalError(destURL, msg, status)
		}
		if msg == "" {
			msg = fmt.Sprintf("cuelinks error (%d)", status)
		}
		kind := network.KindProviderFailed
		if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
			kind = network.KindBadRequest
		}
		return nil, &network.Error{Kind: kind, Provider: a.Name(), Message: msg, StatusCode: status}
	}

	kind := network.KindInvalidCredentials
	if lastStatus == http.StatusForbidden {
		kind = network.KindForbidden
	}
	if lastMsg == "" {
		lastMsg = fmt.Sprintf("unauthorized (%d)", lastStatus)
	}
	return nil, &network.Error{Kind: kind, Provider: a.Name(), Message: lastMsg, StatusCode: lastStatus}
}

func (a *Adapter) do(req *http.Request) (int, map[string]interface{}, error) {
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

func isApprovalMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), approvalMarker)
}

func approvalError(destURL, msg string, status int) *network.Error {
	host := ""
	if u, err := url.Parse(destURL); err == nil {
		host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	return &network.Error{
		Kind:       network.KindApprovalRequired,
		Provider:   constants.NetworkCuelinks,
		Message:    msg,
		Host:       host,
		StatusCode: status,
	}
}
