package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/earnko/internal/models"
)

const defaultLinkStateTTL = 5 * time.Minute

// LinkState 跳转所需的链接快照，避免每次点击都查库
type LinkState struct {
	LinkID         uint   `json:"link_id"`
	UserID         uint   `json:"user_id"`
	StoreID        *uint  `json:"store_id,omitempty"`
	ProductID      *uint  `json:"product_id,omitempty"`
	Slug           string `json:"slug"`
	Mode           string `json:"mode"`
	Provider       string `json:"provider"`
	CampaignID     string `json:"campaign_id"`
	DestinationURL string `json:"destination_url"`
	GeneratedLink  string `json:"generated_link"`
	IssueClickID   string `json:"issue_click_id"`
	CategoryKey    string `json:"category_key,omitempty"`
	CookieDays     int    `json:"cookie_days"`
	CachedAt       int64  `json:"cached_at"`
}

func linkStateKey(slug string) string {
	return fmt.Sprintf("link:slug:%s", strings.TrimSpace(slug))
}

// BuildLinkState 从链接模型构建快照
func BuildLinkState(link *models.UniqueLink) *LinkState {
	if link == nil {
		return nil
	}
	state := &LinkState{
		LinkID:         link.ID,
		UserID:         link.UserID,
		StoreID:        link.StoreID,
		ProductID:      link.ProductID,
		Slug:           link.Slug,
		Mode:           link.Mode,
		Provider:       link.Provider,
		CampaignID:     link.CampaignID,
		DestinationURL: link.DestinationURL,
		GeneratedLink:  link.GeneratedLink,
		IssueClickID:   link.IssueClickID,
		CategoryKey:    link.Metadata.String("category_key"),
		CachedAt:       time.Now().Unix(),
	}
	if link.Store != nil {
		state.CookieDays = link.Store.CookieDuration
	}
	return state
}

// GetLinkState 读取链接快照
func GetLinkState(ctx context.Context, slug string) (*LinkState, bool, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, false, nil
	}
	var state LinkState
	hit, err := GetJSON(ctx, linkStateKey(slug), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetLinkState 写入链接快照，ttl<=0 使用默认值
func SetLinkState(ctx context.Context, state *LinkState, ttl time.Duration) error {
	if state == nil || state.Slug == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultLinkStateTTL
	}
	return SetJSON(ctx, linkStateKey(state.Slug), state, ttl)
}

// DelLinkState 删除链接快照
func DelLinkState(ctx context.Context, slug string) error {
	if strings.TrimSpace(slug) == "" {
		return nil
	}
	return Del(ctx, linkStateKey(slug))
}
