package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier 把业务事件（非运维告警）发布到 Kafka
type KafkaNotifier struct {
	writer       messageWriter
	topicByEvent map[string]string
}

// NewKafkaNotifier 创建 Kafka 通知器
func NewKafkaNotifier(brokers []string, topicByEvent map[string]string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka notifier requires at least one broker")
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByEvent: topicByEvent,
	}, nil
}

// Notify 运维告警不进入 Kafka；主题按事件类型映射，未配置时用事件类型本身
func (k *KafkaNotifier) Notify(ctx context.Context, event Event) error {
	if event.IsOps() {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	topic := event.Type
	if mapped, ok := k.topicByEvent[event.Type]; ok && mapped != "" {
		topic = mapped
	}
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.Key),
		Value: payload,
		Time:  at.UTC(),
	})
}

// Close 关闭 writer
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
