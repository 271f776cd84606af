package worker

import (
	"context"
	"errors"
	"time"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultSweepInterval = time.Minute
	defaultStaleAfter    = 10 * time.Minute
	staleSweepBatch      = 200
)

// StaleSweeper 巡检长时间停留在 received 的回调事件
type StaleSweeper interface {
	SweepStale(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweeper       StaleSweeper
	sweepInterval time.Duration
	staleAfter    time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, webhookCfg config.WebhookConfig, consumer *Consumer, sweeper StaleSweeper) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = logger.Component("asynq")
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(logTaskFailure)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweeper:       sweeper,
		sweepInterval: secondsOr(webhookCfg.SweepIntervalSeconds, defaultSweepInterval),
		staleAfter:    secondsOr(webhookCfg.StaleAfterSeconds, defaultStaleAfter),
	}, nil
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// logTaskFailure 记录每次任务失败，重试耗尽时升级为 error
func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	kv := []interface{}{"type", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err}
	if retried >= maxRetry {
		wlog().Errorw("task_exhausted", kv...)
		return
	}
	wlog().Warnw("task_failed", kv...)
}

// Start 启动消费与巡检，阻塞到 ctx 取消；信号由上层 Runner 处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.sweeper != nil {
		go RunStaleSweepLoop(ctx, s.sweeper, s.sweepInterval, s.staleAfter)
	}
	<-ctx.Done()
	return nil
}

// Stop 停止拉取新任务并等待在途任务结束
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.server.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunStaleSweepLoop 周期性把超时未处理的回调事件标记为 error 并告警，ctx 取消后退出
func RunStaleSweepLoop(ctx context.Context, sweeper StaleSweeper, interval, staleAfter time.Duration) {
	if sweeper == nil {
		return
	}
	runOnce := func() {
		marked, err := sweeper.SweepStale(ctx, staleAfter, staleSweepBatch)
		if err != nil {
			wlog().Warnw("webhook_sweep_failed", "error", err)
			return
		}
		if marked > 0 {
			wlog().Infow("webhook_sweep_marked", "count", marked)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// SweepService 队列未启用时单独运行回调巡检
type SweepService struct {
	sweeper    StaleSweeper
	interval   time.Duration
	staleAfter time.Duration
}

// NewSweepService 创建巡检服务
func NewSweepService(webhookCfg config.WebhookConfig, sweeper StaleSweeper) *SweepService {
	return &SweepService{
		sweeper:    sweeper,
		interval:   secondsOr(webhookCfg.SweepIntervalSeconds, defaultSweepInterval),
		staleAfter: secondsOr(webhookCfg.StaleAfterSeconds, defaultStaleAfter),
	}
}

// Name 服务名称
func (s *SweepService) Name() string { return "webhook-sweep" }

// Start 阻塞运行直到 ctx 取消
func (s *SweepService) Start(ctx context.Context) error {
	if s == nil || s.sweeper == nil {
		return errors.New("sweeper not initialized")
	}
	RunStaleSweepLoop(ctx, s.sweeper, s.interval, s.staleAfter)
	return nil
}

// Stop 停止服务
func (s *SweepService) Stop(context.Context) error { return nil }
