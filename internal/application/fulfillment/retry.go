package fulfillment

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/pkg/metrics"
)

// RetryPolicy 指数退避重试策略
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewRetryPolicy(cfg config.NotificationConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		b.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		b.MaxInterval = p.MaxBackoff
	}
	b.MaxElapsedTime = 0 // 只按次数限制
	b.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// runWithRetry 执行任务,失败时按策略退避重试;不可恢复的错误立即返回
func runWithRetry(ctx context.Context, runner Runner, event order.PlacedEvent, policy RetryPolicy, log *logrus.Logger) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := runner.Run(ctx, event)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		metrics.NotificationJobsTotal.WithLabelValues("retry").Inc()
		log.WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"attempt":  attempt,
			"wait":     wait.String(),
		}).WithError(err).Warn("notification job failed, retrying")
	}

	err := backoff.RetryNotify(operation, policy.backOff(ctx), notify)
	metrics.NotificationJobsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		log.WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"order_no": event.OrderNo,
			"attempts": attempt,
		}).WithError(err).Error("notification job failed")
	}
	return err
}
