package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/earnko/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stops    *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.startErr
}

func (f *fakeService) Stop(ctx context.Context) error {
	*f.stops = append(*f.stops, f.name)
	return nil
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	var stops []string
	runner := NewRunner(
		&fakeService{name: "http", block: true, stops: &stops},
		nil,
		&fakeService{name: "worker", startErr: errors.New("redis down"), stops: &stops},
	)
	if got := runner.Names(); len(got) != 2 {
		t.Fatalf("nil service should be skipped, got %v", got)
	}

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || !strings.Contains(err.Error(), "worker: redis down") {
		t.Fatalf("want worker failure, got %v", err)
	}
	if len(stops) != 2 || stops[0] != "worker" || stops[1] != "http" {
		t.Fatalf("services should stop in reverse order, got %v", stops)
	}
}

func TestRunnerCancelledContextIsCleanExit(t *testing.T) {
	var stops []string
	runner := NewRunner(&fakeService{name: "webhook-sweep", block: true, stops: &stops})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if len(stops) != 1 {
		t.Fatalf("service should be stopped once, got %v", stops)
	}
}

func TestNormalizeOptionsUsesServerShutdownTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeoutSeconds = 3
	opts := normalizeOptions(Options{Config: cfg, Mode: "bogus"})
	if opts.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown timeout want 3s got %s", opts.ShutdownTimeout)
	}
	if opts.Mode != ModeAll {
		t.Fatalf("unknown mode should fall back to all, got %s", opts.Mode)
	}
}

func TestBuildRunnerRejectsNilConfig(t *testing.T) {
	if _, _, err := BuildRunner(nil, ModeAPI); err == nil {
		t.Fatalf("nil config should fail")
	}
}
