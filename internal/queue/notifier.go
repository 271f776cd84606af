package queue

import (
	"context"
	"time"

	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/notify"
)

// Notifier 队列启用时异步投递，否则直接调用 fallback
type Notifier struct {
	client   *Client
	fallback notify.Notifier
}

// NewNotifier 创建异步通知器
func NewNotifier(client *Client, fallback notify.Notifier) *Notifier {
	if fallback == nil {
		fallback = notify.Noop{}
	}
	return &Notifier{client: client, fallback: fallback}
}

// Notify 实现 notify.Notifier；入队失败时降级为同步投递
func (n *Notifier) Notify(ctx context.Context, event notify.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if n.client.Enabled() {
		err := n.client.EnqueueNotify(event)
		if err == nil {
			return nil
		}
		logger.Warnw("queue_enqueue_notify_failed", "type", event.Type, "error", err)
	}
	return n.fallback.Notify(ctx, event)
}
