package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/notify"
)

func TestNotifierFallsBackWhenQueueDisabled(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	var got []notify.Event
	n := NewNotifier(client, notify.NotifierFunc(func(_ context.Context, e notify.Event) error {
		got = append(got, e)
		return nil
	}))
	if err := n.Notify(context.Background(), notify.Event{Type: "conversion.recorded"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(got) != 1 || got[0].OccurredAt.IsZero() {
		t.Fatalf("expected inline delivery with timestamp, got %+v", got)
	}
	if err := client.EnqueueCommissionProcess(1, 0); err != nil {
		t.Fatalf("disabled enqueue must be noop: %v", err)
	}
}

func TestNotifyTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewNotifyDispatchTask(NotifyDispatchPayload{Event: notify.Event{Type: "ops.webhook_stale", Key: "7"}})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskNotifyDispatch {
		t.Fatalf("unexpected type %s", task.Type())
	}
	var payload NotifyDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Event.Type != "ops.webhook_stale" || payload.Event.Key != "7" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" || cfg.Concurrency != 10 {
		t.Fatalf("unexpected defaults %+v %+v", opt, cfg)
	}
	if cfg.Queues["critical"] == 0 || cfg.Queues["default"] == 0 {
		t.Fatalf("expected both queues, got %v", cfg.Queues)
	}
}

func TestBuildServerConfigFromQueueSettings(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis.internal ", Port: 6380, DB: 2, Concurrency: 4})
	if opt.Addr != "redis.internal:6380" || opt.DB != 2 || cfg.Concurrency != 4 {
		t.Fatalf("unexpected server config %+v %+v", opt, cfg)
	}
}

func TestCommissionTaskIDIsPerTransaction(t *testing.T) {
	if commissionTaskID(42) != "commission:42" || commissionTaskID(42) == commissionTaskID(43) {
		t.Fatalf("task ids must be stable per transaction")
	}
	client, _ := NewClient(nil)
	if client.Enabled() {
		t.Fatalf("nil config must disable the queue")
	}
}
