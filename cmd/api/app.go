package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/xiebiao/bookplus/internal/application/fulfillment"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/pkg/mq"
)

const serviceName = "bookplus"

// 处理被中断(进程退出)的消息最多投递次数,任务本身的重试在处理函数内完成
const consumerMaxAttempts = 3

// App 进程内所有长期运行的组件
type App struct {
	cfg    *config.Config
	log    *logrus.Logger
	engine *gin.Engine
	runner fulfillment.Runner
}

func NewApp(cfg *config.Config, log *logrus.Logger, engine *gin.Engine, runner fulfillment.Runner) *App {
	return &App{cfg: cfg, log: log, engine: engine, runner: runner}
}

// Run 启动HTTP服务、gRPC健康检查与消息消费者,ctx取消后优雅关闭
// 任一组件退出出错时其余组件随之停止
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.serveHTTP(ctx, g)
	if a.cfg.GRPC.Enabled {
		if err := a.serveGRPC(ctx, g); err != nil {
			return err
		}
	}
	if a.cfg.Notification.Dispatch == config.DispatchRabbitMQ {
		if err := a.consume(ctx, g); err != nil {
			return err
		}
	}

	return g.Wait()
}

func (a *App) serveHTTP(ctx context.Context, g *errgroup.Group) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		a.log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务启动失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
}

// serveGRPC 只提供标准健康检查与反射,供编排系统探活
func (a *App) serveGRPC(ctx context.Context, g *errgroup.Group) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("gRPC端口监听失败: %w", err)
	}

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	g.Go(func() error {
		a.log.WithField("addr", lis.Addr().String()).Info("grpc health server listening")
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC服务异常退出: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		healthServer.Shutdown()
		server.GracefulStop()
		return nil
	})
	return nil
}

// consume 消费order.placed事件并执行通知任务
func (a *App) consume(ctx context.Context, g *errgroup.Group) error {
	consumer, err := mq.NewConsumer(mq.ConsumerOptions{
		URL:          a.cfg.MQ.URL,
		Exchange:     a.cfg.MQ.Exchange,
		ExchangeType: a.cfg.MQ.ExchangeType,
		Queue:        a.cfg.MQ.Queue,
		RoutingKeys:  []string{order.RoutingKeyPlaced},
		Prefetch:     a.cfg.MQ.Prefetch,
		MaxAttempts:  consumerMaxAttempts,
	}, a.log)
	if err != nil {
		return fmt.Errorf("创建消费者失败: %w", err)
	}

	g.Go(func() error {
		defer consumer.Close()
		return consumer.Consume(ctx, fulfillment.NewMessageHandler(a.runner, fulfillment.NewRetryPolicy(a.cfg.Notification), a.log))
	})
	return nil
}
