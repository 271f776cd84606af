package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/earnko/internal/logger"
	"github.com/earnko/internal/models"
	"github.com/earnko/internal/notify"
	"github.com/earnko/internal/provider"
	"github.com/earnko/internal/queue"
	"github.com/earnko/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func wlog() *zap.SugaredLogger {
	return logger.Component("worker")
}

// CommissionProcessor 佣金补算
type CommissionProcessor interface {
	ProcessTransaction(ctx context.Context, transactionID uint) (*models.Commission, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	Notifier    notify.Notifier
	Commissions CommissionProcessor
}

// NewConsumer 创建消费者；通知任务直接投递到底层通知器，避免再次入队
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	return &Consumer{
		Notifier:    c.DeliveryNotifier,
		Commissions: c.CommissionService,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		wlog().Debugw("register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotifyDispatch, c.handleNotifyDispatch)
	mux.HandleFunc(queue.TaskCommissionProcess, c.handleCommissionProcess)
}

func (c *Consumer) handleNotifyDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		wlog().Debugw("notify_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotifyDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		wlog().Warnw("notify_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.Event.Type == "" {
		wlog().Debugw("notify_dispatch_skip_invalid_payload")
		return nil
	}
	if c.Notifier == nil {
		wlog().Warnw("notify_dispatch_skip_notifier_nil", "type", payload.Event.Type)
		return nil
	}
	if err := c.Notifier.Notify(ctx, payload.Event); err != nil {
		wlog().Warnw("notify_dispatch_failed", "type", payload.Event.Type, "key", payload.Event.Key, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCommissionProcess(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		wlog().Debugw("commission_process_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CommissionProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		wlog().Warnw("commission_process_unmarshal_failed", "error", err)
		return err
	}
	if payload.TransactionID == 0 {
		wlog().Debugw("commission_process_skip_invalid_payload", "transaction_id", payload.TransactionID)
		return nil
	}
	if c.Commissions == nil {
		wlog().Warnw("commission_process_skip_service_nil", "transaction_id", payload.TransactionID)
		return nil
	}
	commission, err := c.Commissions.ProcessTransaction(ctx, payload.TransactionID)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			wlog().Debugw("commission_process_skip_not_found", "transaction_id", payload.TransactionID)
			return nil
		}
		wlog().Warnw("commission_process_failed", "transaction_id", payload.TransactionID, "error", err)
		return err
	}
	if commission == nil {
		wlog().Debugw("commission_process_skip_unattributed", "transaction_id", payload.TransactionID)
		return nil
	}
	wlog().Infow("commission_processed",
		"transaction_id", payload.TransactionID,
		"commission_id", commission.ID,
		"amount", commission.Amount.String(),
		"rule", commission.Rule,
	)
	return nil
}
