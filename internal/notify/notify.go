// Package notify 业务事件与运维告警的投递。
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/logger"
)

// Event 通知事件
type Event struct {
	Type       string                 `json:"type"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Key        string                 `json:"key,omitempty"` // 分区键，如订单号
	Fields     map[string]interface{} `json:"fields,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// IsOps 运维告警类事件
func (e Event) IsOps() bool {
	return strings.HasPrefix(e.Type, "ops.")
}

// Notifier 通知投递接口
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc 函数适配
type NotifierFunc func(ctx context.Context, event Event) error

// Notify 实现 Notifier
func (f NotifierFunc) Notify(ctx context.Context, event Event) error { return f(ctx, event) }

// LogNotifier 写结构化日志
type LogNotifier struct{}

// Notify 实现 Notifier
func (LogNotifier) Notify(_ context.Context, event Event) error {
	kv := []interface{}{"type", event.Type, "message", event.Message}
	if event.Key != "" {
		kv = append(kv, "key", event.Key)
	}
	for k, v := range event.Fields {
		kv = append(kv, k, v)
	}
	switch event.Level {
	case constants.NotifyLevelError:
		logger.Errorw("notify_event", kv...)
	case constants.NotifyLevelWarn:
		logger.Warnw("notify_event", kv...)
	default:
		logger.Infow("notify_event", kv...)
	}
	return nil
}

// Multi 扇出到多个通知器，单个失败不影响其余
type Multi []Notifier

// Notify 实现 Notifier
func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop 丢弃所有事件
type Noop struct{}

// Notify 实现 Notifier
func (Noop) Notify(context.Context, Event) error { return nil }

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case constants.NotifyLevelError:
		return 3
	case constants.NotifyLevelWarn:
		return 2
	default:
		return 1
	}
}
