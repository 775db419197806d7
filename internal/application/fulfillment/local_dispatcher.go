package fulfillment

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

const defaultQueueSize = 256

var (
	ErrQueueFull       = apperrors.New(apperrors.ErrCodeNotification, "通知队列已满")
	ErrDispatcherClose = apperrors.New(apperrors.ErrCodeNotification, "通知派发器已关闭")
)

// LocalDispatcher 进程内派发:有界队列 + 固定数量的worker
// Dispatch从不阻塞,队列满时返回ErrQueueFull
type LocalDispatcher struct {
	runner  Runner
	policy  RetryPolicy
	workers int
	log     *logrus.Logger

	queue  chan order.PlacedEvent
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.RWMutex
	started bool
	closed  bool
}

func NewLocalDispatcher(runner Runner, cfg *config.Config, log *logrus.Logger) *LocalDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	workers := cfg.Notification.Workers
	if workers <= 0 {
		workers = 1
	}
	return &LocalDispatcher{
		runner:  runner,
		policy:  NewRetryPolicy(cfg.Notification),
		workers: workers,
		log:     log,
		queue:   make(chan order.PlacedEvent, defaultQueueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start 启动worker,重复调用无效
func (d *LocalDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	go func() {
		defer close(d.done)
		p := pool.New().WithMaxGoroutines(d.workers)
		for event := range d.queue {
			p.Go(func() {
				_ = runWithRetry(d.ctx, d.runner, event, d.policy, d.log)
			})
		}
		p.Wait()
	}()
	d.log.WithField("workers", d.workers).Info("notification dispatcher started")
}

func (d *LocalDispatcher) Dispatch(_ context.Context, event order.PlacedEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClose
	}

	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 停止接收新任务并等待队列中的任务完成
// ctx到期后取消进行中的重试等待
func (d *LocalDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		d.cancel()
		return nil
	}

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}
