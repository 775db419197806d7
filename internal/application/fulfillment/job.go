// Package fulfillment 下单后的异步处理:生成发票并发送确认邮件
//
// 订单在事务提交后才派发任务,任务失败只影响通知,不影响订单本身。
package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookplus/internal/domain/notification"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/metrics"
	"github.com/xiebiao/bookplus/pkg/saga"
	"github.com/xiebiao/bookplus/pkg/tracing"
)

const (
	tracerName = "bookplus/application/fulfillment"
	sagaName   = "order_notification"
)

// Runner 执行一次通知任务
type Runner interface {
	Run(ctx context.Context, event order.PlacedEvent) error
}

// NotificationJob 订单通知任务
//
// 步骤: 渲染发票 → 发送邮件 → 标记已通知
// 已通知的订单默认跳过,管理员重发(Resend)时例外
type NotificationJob struct {
	orderRepo order.Repository
	renderer  order.InvoiceRenderer
	sender    notification.Sender
	store     config.StoreConfig
	timeout   time.Duration
	log       *logrus.Logger
}

func NewNotificationJob(
	orderRepo order.Repository,
	renderer order.InvoiceRenderer,
	sender notification.Sender,
	cfg *config.Config,
	log *logrus.Logger,
) *NotificationJob {
	return &NotificationJob{
		orderRepo: orderRepo,
		renderer:  renderer,
		sender:    sender,
		store:     cfg.Store,
		timeout:   cfg.Notification.JobTimeout,
		log:       log,
	}
}

func (j *NotificationJob) Run(ctx context.Context, event order.PlacedEvent) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "NotificationJob")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(
		attribute.Int64("order.id", int64(event.OrderID)),
		attribute.Bool("notification.resend", event.Resend),
	)

	metrics.NotificationJobsInFlight.Inc()
	defer metrics.NotificationJobsInFlight.Dec()

	o, err := j.orderRepo.FindByID(ctx, event.OrderID)
	if err != nil {
		return err
	}
	if o.NotifiedAt != nil && !event.Resend {
		j.log.WithField("order_id", o.ID).Debug("order already notified, skip")
		return nil
	}

	var (
		invoice []byte
		message notification.Message
	)
	s := saga.NewSaga(sagaName, j.timeout).
		AddStep("render_invoice", func(ctx context.Context) error {
			data, err := j.renderer.Render(o)
			metrics.InvoicesRenderedTotal.WithLabelValues(metrics.Result(err)).Inc()
			if err != nil {
				return apperrors.WrapCode(err, apperrors.ErrCodeDocumentGeneration, "发票生成失败")
			}
			invoice = data
			return nil
		}, nil).
		AddStep("send_email", func(ctx context.Context) error {
			msg, err := ComposeConfirmation(j.store, o, invoice, j.renderer.ContentType())
			if err != nil {
				return apperrors.WrapCode(err, apperrors.ErrCodeNotification, "邮件生成失败")
			}
			message = msg
			if err := j.sender.Send(ctx, message); err != nil {
				return apperrors.WrapCode(err, apperrors.ErrCodeNotification, "确认邮件发送失败")
			}
			return nil
		}, nil).
		AddStep("mark_notified", func(ctx context.Context) error {
			// 邮件已送出,这里返回错误会让整个任务重试并重复发信
			if err := j.orderRepo.MarkNotified(ctx, o.ID, time.Now()); err != nil {
				j.log.WithFields(logrus.Fields{
					"saga":     sagaName,
					"order_id": o.ID,
					"order_no": o.OrderNo,
				}).WithError(err).Error("mark order notified failed")
			}
			return nil
		}, nil)

	start := time.Now()
	err = s.Execute(ctx)
	metrics.SagaExecutionDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	metrics.SagaExecutionsTotal.WithLabelValues(s.Name(), metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	j.log.WithFields(logrus.Fields{
		"saga":     s.Name(),
		"order_id": o.ID,
		"order_no": o.OrderNo,
		"to":       message.To,
		"resend":   event.Resend,
	}).Info("order notification sent")
	return nil
}

// isPermanent 重试也无法成功的错误
func isPermanent(err error) bool {
	return errors.Is(err, order.ErrOrderNotFound) || errors.Is(err, order.ErrDocumentGeneration)
}
