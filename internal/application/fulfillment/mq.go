package fulfillment

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookplus/internal/domain/order"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/mq"
)

// EventPublisher 由 mq.Publisher 实现
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// MQDispatcher 把下单事件发布到RabbitMQ,由消费者进程执行通知任务
type MQDispatcher struct {
	publisher EventPublisher
}

func NewMQDispatcher(publisher EventPublisher) *MQDispatcher {
	return &MQDispatcher{publisher: publisher}
}

func (d *MQDispatcher) Dispatch(ctx context.Context, event order.PlacedEvent) error {
	if err := d.publisher.Publish(ctx, order.RoutingKeyPlaced, event); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeMessageQueue, "发布下单事件失败")
	}
	return nil
}

// NewMessageHandler 消费order.placed消息
// 任务失败时在处理函数内按policy退避重试;无法解析的消息与重试耗尽或不可恢复的错误
// 都直接确认,只有处理被取消时交给队列重投
func NewMessageHandler(runner Runner, policy RetryPolicy, log *logrus.Logger) mq.Handler {
	return func(ctx context.Context, body []byte) error {
		var event order.PlacedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.WithError(err).WithField("body", string(body)).Error("malformed order event dropped")
			return nil
		}

		err := runWithRetry(ctx, runner, event, policy, log)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		log.WithField("order_id", event.OrderID).WithError(err).Error("order event dropped")
		return nil
	}
}
