package service

import (
	"context"
	"time"

	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/notify"
)

// emitEvent 投递通知，失败只记日志
func emitEvent(ctx context.Context, n notify.Notifier, event notify.Event) {
	if n == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := n.Notify(ctx, event); err != nil {
		logger.Warnw("notify_dispatch_failed", "type", event.Type, "error", err)
	}
}
