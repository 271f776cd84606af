package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/earnko/internal/models"
	"github.com/earnko/internal/notify"
	"github.com/earnko/internal/queue"
	"github.com/earnko/internal/service"

	"github.com/hibiken/asynq"
)

type fakeProcessor struct {
	calls []uint
	err   error
}

func (f *fakeProcessor) ProcessTransaction(_ context.Context, id uint) (*models.Commission, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Commission{ID: 9, TransactionID: id}, nil
}

type fakeSweeper struct {
	mu    sync.Mutex
	runs  int
	after time.Duration
}

func (f *fakeSweeper) SweepStale(_ context.Context, olderThan time.Duration, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	f.after = olderThan
	return 1, nil
}

func TestHandleNotifyDispatchDelivers(t *testing.T) {
	var got []notify.Event
	consumer := &Consumer{Notifier: notify.NotifierFunc(func(_ context.Context, e notify.Event) error {
		got = append(got, e)
		return nil
	})}
	body, _ := json.Marshal(queue.NotifyDispatchPayload{Event: notify.Event{Type: "conversion.recorded", Key: "cuelinks:A1"}})
	if err := consumer.handleNotifyDispatch(context.Background(), asynq.NewTask(queue.TaskNotifyDispatch, body)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(got) != 1 || got[0].Key != "cuelinks:A1" {
		t.Fatalf("unexpected delivery: %+v", got)
	}

	if err := consumer.handleNotifyDispatch(context.Background(), asynq.NewTask(queue.TaskNotifyDispatch, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	empty, _ := json.Marshal(queue.NotifyDispatchPayload{})
	if err := consumer.handleNotifyDispatch(context.Background(), asynq.NewTask(queue.TaskNotifyDispatch, empty)); err != nil {
		t.Fatalf("empty event must be skipped, got %v", err)
	}
}

func TestHandleCommissionProcess(t *testing.T) {
	processor := &fakeProcessor{}
	consumer := &Consumer{Commissions: processor}
	body, _ := json.Marshal(queue.CommissionProcessPayload{TransactionID: 42})
	if err := consumer.handleCommissionProcess(context.Background(), asynq.NewTask(queue.TaskCommissionProcess, body)); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(processor.calls) != 1 || processor.calls[0] != 42 {
		t.Fatalf("unexpected calls: %v", processor.calls)
	}

	processor.err = service.ErrTransactionNotFound
	if err := consumer.handleCommissionProcess(context.Background(), asynq.NewTask(queue.TaskCommissionProcess, body)); err != nil {
		t.Fatalf("missing transaction must not retry, got %v", err)
	}
	zero, _ := json.Marshal(queue.CommissionProcessPayload{})
	if err := consumer.handleCommissionProcess(context.Background(), asynq.NewTask(queue.TaskCommissionProcess, zero)); err != nil {
		t.Fatalf("zero id must be skipped, got %v", err)
	}
	if len(processor.calls) != 2 {
		t.Fatalf("zero id reached the processor: %v", processor.calls)
	}
}

func TestRunStaleSweepLoopStopsOnCancel(t *testing.T) {
	sweeper := &fakeSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunStaleSweepLoop(ctx, sweeper, 10*time.Millisecond, 5*time.Minute)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweep loop did not stop")
	}
	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	if sweeper.runs < 2 || sweeper.after != 5*time.Minute {
		t.Fatalf("runs=%d after=%s", sweeper.runs, sweeper.after)
	}
}
