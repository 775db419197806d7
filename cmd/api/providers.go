package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/xiebiao/bookplus/internal/application/admin"
	"github.com/xiebiao/bookplus/internal/application/fulfillment"
	"github.com/xiebiao/bookplus/internal/domain/book"
	"github.com/xiebiao/bookplus/internal/domain/cart"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/internal/infrastructure/persistence/database"
	"github.com/xiebiao/bookplus/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookplus/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookplus/pkg/jwt"
	"github.com/xiebiao/bookplus/pkg/mq"
)

// 访客购物车闲置过期时间
const cartTTL = 7 * 24 * time.Hour

// provideDB 创建数据库连接,cleanup关闭连接
func provideDB(cfg *config.Config, log *logrus.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("close database")
		}
	}, nil
}

// provideRedisClient 未启用Redis时返回nil,会话黑名单与购物车退回进程内存储
func provideRedisClient(cfg *config.Config, log *logrus.Logger) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		log.Info("redis disabled, using in-memory session and cart storage")
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideTokenBlacklist(client *goredis.Client) admin.TokenBlacklist {
	if client == nil {
		return memory.NewTokenBlacklist()
	}
	return redis.NewSessionStore(client)
}

func provideCartStorage(client *goredis.Client) cart.Storage {
	if client == nil {
		return memory.NewCartStorage(cartTTL)
	}
	return redis.NewCartStorage(client, cartTTL)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expire)
}

func provideBookService(cfg *config.Config, repo book.Repository) book.Service {
	return book.NewService(repo, cfg.Checkout.DefaultAcademicYear)
}

// provideDispatcher 按notification.dispatch选择派发方式
// local: 进程内有界工作池,cleanup时等待队列排空
// rabbitmq: 发布order.placed事件,由消费者执行任务
func provideDispatcher(cfg *config.Config, runner fulfillment.Runner, log *logrus.Logger) (order.EventDispatcher, func(), error) {
	switch cfg.Notification.Dispatch {
	case config.DispatchRabbitMQ:
		publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
		if err != nil {
			return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
		}
		return fulfillment.NewMQDispatcher(publisher), func() { _ = publisher.Close() }, nil
	default:
		d := fulfillment.NewLocalDispatcher(runner, cfg, log)
		d.Start()
		return d, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := d.Close(ctx); err != nil {
				log.WithError(err).Warn("notification queue not drained")
			}
		}, nil
	}
}
