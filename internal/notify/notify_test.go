package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestMultiContinuesPastFailures(t *testing.T) {
	var delivered int
	failing := NotifierFunc(func(context.Context, Event) error { return errors.New("down") })
	counting := NotifierFunc(func(context.Context, Event) error { delivered++; return nil })

	err := Multi{failing, nil, counting}.Notify(context.Background(), Event{Type: "conversion.recorded"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if delivered != 1 {
		t.Fatalf("second notifier must still run, delivered=%d", delivered)
	}
}

func TestKafkaNotifierSkipsOpsAndMapsTopics(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaNotifier{writer: w, topicByEvent: map[string]string{"conversion.recorded": "earnko.conversions"}}

	if err := k.Notify(context.Background(), Event{Type: "ops.webhook_stale", Level: "warn"}); err != nil {
		t.Fatalf("ops event: %v", err)
	}
	if err := k.Notify(context.Background(), Event{Type: "conversion.recorded", Key: "cuelinks:O1", Message: "ok"}); err != nil {
		t.Fatalf("domain event: %v", err)
	}
	if err := k.Notify(context.Background(), Event{Type: "transaction.status_changed", Key: "cuelinks:O1"}); err != nil {
		t.Fatalf("unmapped event: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("want 2 messages got %d", len(w.msgs))
	}
	if w.msgs[0].Topic != "earnko.conversions" || string(w.msgs[0].Key) != "cuelinks:O1" {
		t.Fatalf("unexpected first message %+v", w.msgs[0])
	}
	if w.msgs[1].Topic != "transaction.status_changed" {
		t.Fatalf("unmapped event should use type as topic, got %s", w.msgs[1].Topic)
	}
	var decoded Event
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil || decoded.Message != "ok" {
		t.Fatalf("payload not an event: %s", w.msgs[0].Value)
	}
}

func TestNewKafkaNotifierRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaNotifier(nil, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestTelegramNotifierFiltersByLevel(t *testing.T) {
	var sent int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected telegram method %s", r.URL.Path)
		}
		atomic.AddInt32(&sent, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("123:abc", "42", "warn", bot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("create notifier: %v", err)
	}
	if err := n.Notify(context.Background(), Event{Type: "conversion.recorded", Level: "info"}); err != nil {
		t.Fatalf("info notify: %v", err)
	}
	if err := n.Notify(context.Background(), Event{Type: "ops.provider_auth_failed", Level: "error", Message: "trackier 401"}); err != nil {
		t.Fatalf("error notify: %v", err)
	}
	if got := atomic.LoadInt32(&sent); got != 1 {
		t.Fatalf("want exactly one telegram message, got %d", got)
	}
}

func TestFormatTelegramTextSortsFields(t *testing.T) {
	text := formatTelegramText(Event{Type: "ops.x", Level: "warn", Message: "m", Fields: map[string]interface{}{"b": 2, "a": 1}})
	if !strings.HasPrefix(text, "[WARN] ops.x") || strings.Index(text, "a: 1") > strings.Index(text, "b: 2") {
		t.Fatalf("unexpected text %q", text)
	}
}
