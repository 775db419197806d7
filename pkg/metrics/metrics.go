// Package metrics 基于Prometheus的指标
//
// 所有指标注册在独立的Registry上,通过Handler()暴露给/metrics端点。
// 命名约定: Counter以_total结尾,Histogram以单位结尾。
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiebiao/bookplus/pkg/circuitbreaker"
)

const namespace = "bookplus"

var (
	// Registry 应用指标注册表
	Registry = prometheus.NewRegistry()

	factory  = promauto.With(Registry)
	initOnce sync.Once
)

// HTTP指标
var (
	HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求耗时（秒）",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "path"})

	HTTPRequestsInProgress = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "正在处理的HTTP请求数",
	})
)

// 下单指标
var (
	OrdersPlacedTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "下单成功总数",
	})

	// OrdersFailedTotal reason: book_not_found | insufficient_stock | conflict | invalid_params | persistence
	OrdersFailedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_failed_total",
		Help:      "下单失败总数",
	}, []string{"reason"})

	OrderPlacementDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_placement_duration_seconds",
		Help:      "下单耗时（秒）",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// StockConflictsTotal 条件扣减未命中(并发抢购)次数
	StockConflictsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_conflicts_total",
		Help:      "库存条件扣减失败次数",
	})

	// OrderStatusChangesTotal flagged=true 表示不在流转表中的变更
	OrderStatusChangesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_changes_total",
		Help:      "订单状态变更次数",
	}, []string{"from", "to", "flagged"})
)

// 下单后处理指标
var (
	// NotificationJobsTotal result: success | failure | retry
	NotificationJobsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_jobs_total",
		Help:      "订单通知任务执行次数",
	}, []string{"result"})

	NotificationJobsInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_jobs_in_flight",
		Help:      "正在执行的订单通知任务数",
	})

	// InvoicesRenderedTotal result: success | failure
	InvoicesRenderedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_rendered_total",
		Help:      "发票生成次数",
	}, []string{"result"})

	// EmailsSentTotal result: success | failure | rejected
	EmailsSentTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "邮件发送次数",
	}, []string{"result"})
)

// 熔断器与Saga指标
var (
	// CircuitBreakerState 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
	}, []string{"name"})

	SagaExecutionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_executions_total",
		Help:      "Saga执行总数",
	}, []string{"saga", "result"})

	SagaExecutionDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "saga_execution_duration_seconds",
		Help:      "Saga执行耗时（秒）",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"saga"})
)

// 消息队列指标
var (
	MessagesPublishedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_published_total",
		Help:      "消息发布总数",
	}, []string{"exchange", "routing_key", "result"})

	MessagesConsumedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_consumed_total",
		Help:      "消息消费总数",
	}, []string{"queue", "result"})

	MessageProcessingDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_processing_duration_seconds",
		Help:      "消息处理耗时（秒）",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"queue"})
)

// InitMetrics 注册Go运行时与进程指标,可重复调用
func InitMetrics() {
	initOnce.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Handler 返回/metrics端点的HTTP处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// BreakerStateCallback 返回把熔断器状态写入CircuitBreakerState的回调
func BreakerStateCallback() func(name string, from, to circuitbreaker.State) {
	return func(name string, _, to circuitbreaker.State) {
		CircuitBreakerState.WithLabelValues(name).Set(float64(to))
	}
}

// Result 把错误转换为result标签值
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
