// Package network 定义联盟网络适配器契约与错误分类。
package network

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind 适配器错误分类
type Kind string

const (
	KindBadRequest         Kind = "bad_request"
	KindMissingCampaignID  Kind = "missing_campaign_id"
	KindMissingAccountID   Kind = "missing_account_id"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindForbidden          Kind = "forbidden"
	KindApprovalRequired   Kind = "approval_required"
	KindNoDeeplink         Kind = "no_deeplink_returned"
	KindProviderFailed     Kind = "provider_failed"
)

// Error 适配器错误
type Error struct {
	Kind       Kind
	Provider   string
	Message    string
	Host       string // approval_required 时的商家域名
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError 构造适配器错误
func NewError(provider string, kind Kind, message string) *Error {
	return &Error{Kind: kind, Provider: provider, Message: message}
}

// KindOf 提取错误分类
func KindOf(err error) (Kind, bool) {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind, true
	}
	return "", false
}

// IsConfigKind 配置缺失类错误（需要运维告警）
func IsConfigKind(kind Kind) bool {
	return kind == KindMissingCampaignID || kind == KindMissingAccountID
}

// IsAuthKind 网络鉴权失败
func IsAuthKind(kind Kind) bool {
	return kind == KindInvalidCredentials || kind == KindForbidden
}

// Config 生成链接时的网络配置（由 ProviderRouter 按域名提供）
type Config struct {
	CampaignID string
	AccountID  string
	ChannelID  string
}

// Adapter 联盟网络适配器：给定落地页与点击 ID 生成深链
type Adapter interface {
	Name() string
	BuildDeeplink(ctx context.Context, destURL, clickID string, cfg Config) (string, error)
}

// Campaign 网络侧的活动/商家
type Campaign struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
	Domain string `json:"domain,omitempty"`
	Status string `json:"status,omitempty"`
}

// CampaignSearcher 可按关键字检索活动的网络（用于审批建议）
type CampaignSearcher interface {
	SearchCampaigns(ctx context.Context, term string) ([]Campaign, error)
}

// Registry 适配器注册表
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry 创建注册表
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		r.adapters[strings.ToLower(a.Name())] = a
	}
	return r
}

// Register 注册或替换适配器
func (r *Registry) Register(name string, a Adapter) {
	r.adapters[strings.ToLower(name)] = a
}

// Get 获取适配器
func (r *Registry) Get(name string) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Names 已注册的网络名
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithDefaultTimeout ctx 没有截止时间时套上默认超时
func WithDefaultTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
