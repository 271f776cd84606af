package queue

import (
	"encoding/json"
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/notify"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotifyDispatch 通知投递任务
	TaskNotifyDispatch = constants.TaskNotifyDispatch
	// TaskCommissionProcess 佣金补算任务
	TaskCommissionProcess = constants.TaskCommissionProcess
)

// NotifyDispatchPayload 通知投递载荷
type NotifyDispatchPayload struct {
	Event notify.Event `json:"event"`
}

// CommissionProcessPayload 佣金补算载荷
type CommissionProcessPayload struct {
	TransactionID uint `json:"transaction_id"`
}

// NewNotifyDispatchTask 创建通知投递任务
func NewNotifyDispatchTask(payload NotifyDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyDispatch, body, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// NewCommissionProcessTask 创建佣金补算任务
func NewCommissionProcessTask(payload CommissionProcessPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionProcess, body, asynq.MaxRetry(8), asynq.Timeout(time.Minute)), nil
}
