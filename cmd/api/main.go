package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	_ "github.com/xiebiao/bookplus/docs"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/pkg/logger"
	"github.com/xiebiao/bookplus/pkg/metrics"
	"github.com/xiebiao/bookplus/pkg/tracing"
)

// @title                      BookPlus API
// @version                    1.0
// @description                学校图书订购服务:目录、结账、订单管理、发票与确认邮件
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 日志
	logr, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	// 3. 可观测性
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			logr.WithError(err).Fatal("init tracer")
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logr.WithError(err).Warn("shutdown tracer")
			}
		}()
	}
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}

	// 4. 依赖注入
	app, cleanup, err := InitializeApp(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("initialize app")
	}
	defer cleanup()

	logr.WithFields(logrus.Fields{
		"port":            cfg.Server.Port,
		"mode":            cfg.Server.Mode,
		"database":        cfg.Database.Driver,
		"stock_policy":    cfg.Checkout.StockPolicy,
		"dispatch":        cfg.Notification.Dispatch,
		"redis_enabled":   cfg.Redis.Enabled,
		"grpc_enabled":    cfg.GRPC.Enabled,
		"smtp_enabled":    cfg.SMTP.Enabled,
		"tracing_enabled": cfg.Tracing.Enabled,
	}).Info("bookplus starting")

	// 5. 运行直到收到SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logr.WithError(err).Error("bookplus stopped with error")
		return
	}
	logr.Info("bookplus stopped")
}
