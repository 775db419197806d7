// Package mq RabbitMQ发布/消费封装
//
// 消息以JSON持久化投递;消费端手动ACK,处理失败时Nack并重新入队,
// 超过最大投递次数的消息丢弃(Nack不重回队列),交由死信交换机处理(如已配置)。
package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookplus/pkg/metrics"
)

// deliveryCountHeader 记录重投次数的消息头
const deliveryCountHeader = "x-bookplus-attempt"

// Publisher 消息发布者
type Publisher struct {
	mu       sync.Mutex // amqp.Channel 不是并发安全的
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *logrus.Logger
}

// NewPublisher 连接RabbitMQ并声明持久化Exchange
func NewPublisher(url, exchange, exchangeType string, log *logrus.Logger) (*Publisher, error) {
	conn, channel, err := dialExchange(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"exchange": exchange, "type": exchangeType}).Info("message publisher ready")
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

// Publish 发布JSON消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}
	return p.publishRaw(ctx, routingKey, body, 1)
}

func (p *Publisher) publishRaw(ctx context.Context, routingKey string, body []byte, attempt int32) error {
	p.mu.Lock()
	err := p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      amqp.Table{deliveryCountHeader: attempt},
		},
	)
	p.mu.Unlock()

	metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	p.log.WithFields(logrus.Fields{"routing_key": routingKey, "attempt": attempt}).Debug("message published")
	return nil
}

// Close 关闭Channel与连接
func (p *Publisher) Close() error {
	return closeAll(p.channel, p.conn)
}

// Consumer 消息消费者
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	maxAttempts int32
	log         *logrus.Logger
}

// ConsumerOptions 消费者配置
type ConsumerOptions struct {
	URL          string
	Exchange     string
	ExchangeType string
	Queue        string
	RoutingKeys  []string
	Prefetch     int
	MaxAttempts  int32 // <=0表示无限重投
}

// NewConsumer 声明Queue并绑定路由键
func NewConsumer(opts ConsumerOptions, log *logrus.Logger) (*Consumer, error) {
	conn, channel, err := dialExchange(opts.URL, opts.Exchange, opts.ExchangeType)
	if err != nil {
		return nil, err
	}

	q, err := channel.QueueDeclare(opts.Queue, true, false, false, false, nil)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range opts.RoutingKeys {
		if err := channel.QueueBind(q.Name, key, opts.Exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	prefetch := opts.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := channel.Qos(prefetch, 0, false); err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("设置Qos失败: %w", err)
	}

	log.WithFields(logrus.Fields{"queue": q.Name, "routing_keys": opts.RoutingKeys}).Info("message consumer ready")
	return &Consumer{
		conn:        conn,
		channel:     channel,
		queue:       q.Name,
		maxAttempts: opts.MaxAttempts,
		log:         log,
	}, nil
}

// Handler 消息处理函数,返回错误表示需要重投
type Handler func(ctx context.Context, body []byte) error

// Consume 阻塞消费直到ctx取消
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	c.log.WithField("queue", c.queue).Info("consuming messages")
	for {
		select {
		case <-ctx.Done():
			c.log.WithField("queue", c.queue).Info("consumer stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("消息Channel已关闭")
			}
			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery, handler Handler) {
	start := time.Now()
	err := handler(ctx, msg.Body)
	metrics.MessageProcessingDuration.WithLabelValues(c.queue).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.MessagesConsumedTotal.WithLabelValues(c.queue, "success").Inc()
		_ = msg.Ack(false)
		return
	}

	attempt := Attempt(msg.Headers)
	entry := c.log.WithFields(logrus.Fields{
		"queue":       c.queue,
		"routing_key": msg.RoutingKey,
		"attempt":     attempt,
	}).WithError(err)

	if c.maxAttempts > 0 && attempt >= c.maxAttempts {
		metrics.MessagesConsumedTotal.WithLabelValues(c.queue, "dropped").Inc()
		entry.Error("message dropped after max attempts")
		_ = msg.Nack(false, false)
		return
	}

	metrics.MessagesConsumedTotal.WithLabelValues(c.queue, "failure").Inc()
	entry.Warn("message handling failed, requeue")

	// 重新发布以递增重投计数,发布失败时退回到原地重回队列
	if repubErr := c.republish(ctx, msg, attempt+1); repubErr != nil {
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

func (c *Consumer) republish(ctx context.Context, msg amqp.Delivery, attempt int32) error {
	return c.channel.PublishWithContext(ctx, msg.Exchange, msg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      amqp.Table{deliveryCountHeader: attempt},
	})
}

// Close 关闭Channel与连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}

// Attempt 从消息头读取投递次数,缺省为1
func Attempt(headers amqp.Table) int32 {
	switch v := headers[deliveryCountHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	default:
		return 1
	}
}

func dialExchange(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}

	return conn, channel, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	var errs []error
	if channel != nil {
		if err := channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
