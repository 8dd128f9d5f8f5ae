package audit

import (
	"context"
	"time"

	"github.com/wyfcoding/indexoptions/pkg/mq"
	"github.com/wyfcoding/pkg/logging"
)

// KafkaRecorder 把审计记录异步发布到 Kafka
// 发布在独立 goroutine 内完成并带超时，任何失败只记日志
type KafkaRecorder struct {
	producer *mq.KafkaProducer
	topic    string
	timeout  time.Duration
}

// NewKafkaRecorder 创建 Kafka 审计下沉
func NewKafkaRecorder(producer *mq.KafkaProducer, topic string) *KafkaRecorder {
	return &KafkaRecorder{
		producer: producer,
		topic:    topic,
		timeout:  5 * time.Second,
	}
}

// Record 异步发布，调用立即返回
func (r *KafkaRecorder) Record(_ context.Context, event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.producer.SendMessage(ctx, r.topic, string(event.Type), event); err != nil {
			logging.Error(ctx, "audit record delivery failed",
				"type", event.Type,
				"reference_id", event.ReferenceID,
				"error", err,
			)
		}
	}()
}
