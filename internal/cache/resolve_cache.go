package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/earnko/internal/logger"
)

// ResolveCache 短链展开结果缓存，按原始链接的 sha1 建 key
type ResolveCache struct {
	TTL time.Duration
}

// NewResolveCache 创建展开缓存
func NewResolveCache(ttl time.Duration) *ResolveCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResolveCache{TTL: ttl}
}

func resolveKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return "resolve:" + hex.EncodeToString(sum[:])
}

// GetResolvedURL 读取展开结果
func (c *ResolveCache) GetResolvedURL(ctx context.Context, rawURL string) (string, bool) {
	val, hit, err := GetString(ctx, resolveKey(rawURL))
	if err != nil {
		logger.Warnw("resolve_cache_get_failed", "error", err)
		return "", false
	}
	return val, hit && val != ""
}

// SetResolvedURL 写入展开结果
func (c *ResolveCache) SetResolvedURL(ctx context.Context, rawURL, finalURL string) {
	if finalURL == "" {
		return
	}
	if err := SetString(ctx, resolveKey(rawURL), finalURL, c.TTL); err != nil {
		logger.Warnw("resolve_cache_set_failed", "error", err)
	}
}
