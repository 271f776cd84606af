package queue

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/notify"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	defaultConcurrency = 10
	// 同一笔交易在该窗口内只保留一个待执行的补算任务
	commissionDedupWindow = 10 * time.Minute
)

// Client asynq 客户端封装；未启用时所有入队操作为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	opt := buildRedisOpt(cfg)
	if opt.Addr == "" {
		return nil, errors.New("queue redis address is empty")
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueNotify 推送通知投递任务，运维告警走 critical 队列
func (c *Client) EnqueueNotify(event notify.Event, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewNotifyDispatchTask(NotifyDispatchPayload{Event: event})
	if err != nil {
		return err
	}
	queueName := DefaultQueue
	if event.IsOps() {
		queueName = constants.QueueCritical
	}
	_, err = c.client.Enqueue(task, append([]asynq.Option{asynq.Queue(queueName)}, opts...)...)
	return err
}

// commissionTaskID 同一交易的补算任务共用 ID，重复入队由 asynq 拒绝
func commissionTaskID(transactionID uint) string {
	return "commission:" + strconv.FormatUint(uint64(transactionID), 10)
}

// EnqueueCommissionProcess 推送佣金补算任务，delay>0 时延迟执行；已有同交易任务在排队时视为成功
func (c *Client) EnqueueCommissionProcess(transactionID uint, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if transactionID == 0 {
		return errors.New("transaction id is required")
	}
	if delay < 0 {
		delay = 0
	}
	task, err := NewCommissionProcessTask(CommissionProcessPayload{TransactionID: transactionID})
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task,
		asynq.Queue(DefaultQueue),
		asynq.ProcessIn(delay),
		asynq.TaskID(commissionTaskID(transactionID)),
		asynq.Retention(commissionDedupWindow),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// BuildServerConfig 生成 worker 端配置，critical 队列权重高于默认队列
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := defaultConcurrency
	queues := map[string]int{DefaultQueue: 3, constants.QueueCritical: 6}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, fmt.Sprint(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
