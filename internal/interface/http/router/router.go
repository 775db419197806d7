// Package router 组装gin引擎:全局中间件、公开接口与管理后台接口
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/internal/interface/http/handler"
	"github.com/xiebiao/bookplus/internal/interface/http/middleware"
	"github.com/xiebiao/bookplus/pkg/metrics"
	"github.com/xiebiao/bookplus/pkg/response"
)

// New 创建并配置Gin引擎
// 中间件顺序：Recovery → Logger → Metrics → 路由匹配 → RequireAdmin(仅/admin) → Handler
func New(
	cfg *config.Config,
	log *logrus.Logger,
	bookHandler *handler.BookHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	adminHandler *handler.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	// 访问 /swagger/index.html 查看API文档
	if cfg.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		books := v1.Group("/books")
		{
			books.GET("", bookHandler.ListBooks)
			books.GET("/:id", bookHandler.GetBook)
		}

		v1.POST("/cart/validate", bookHandler.ValidateCart)

		carts := v1.Group("/carts")
		{
			carts.POST("", cartHandler.CreateCart)
			carts.GET("/:token", cartHandler.GetCart)
			carts.DELETE("/:token", cartHandler.ClearCart)
			carts.PUT("/:token/items", cartHandler.SetItem)
			carts.DELETE("/:token/items/:book_id", cartHandler.RemoveItem)
		}

		v1.POST("/checkout", orderHandler.Checkout)
		v1.GET("/orders/:order_no", orderHandler.TrackOrder)

		// 登录是/admin下唯一的公开接口
		v1.POST("/admin/login", adminHandler.Login)

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/logout", adminHandler.Logout)

			adminGroup.POST("/books", bookHandler.CreateBook)
			adminGroup.PUT("/books/:id", bookHandler.UpdateBook)
			adminGroup.DELETE("/books/:id", bookHandler.DeleteBook)

			adminGroup.GET("/orders", orderHandler.ListOrders)
			adminGroup.GET("/orders/summary", orderHandler.OrderSummary)
			adminGroup.GET("/orders/summary/export", orderHandler.ExportOrderSummary)
			adminGroup.GET("/orders/:id", orderHandler.GetOrder)
			adminGroup.PATCH("/orders/:id", orderHandler.EditOrder)
			adminGroup.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)
			adminGroup.GET("/orders/:id/invoice", orderHandler.DownloadInvoice)
			adminGroup.POST("/orders/:id/notify", orderHandler.ResendNotification)
		}
	}

	return r
}
