//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改Provider后运行 `wire gen ./cmd/api` 重新生成 wire_gen.go

package main

import (
	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookplus/internal/application/admin"
	appbook "github.com/xiebiao/bookplus/internal/application/book"
	appcart "github.com/xiebiao/bookplus/internal/application/cart"
	"github.com/xiebiao/bookplus/internal/application/fulfillment"
	apporder "github.com/xiebiao/bookplus/internal/application/order"
	"github.com/xiebiao/bookplus/internal/domain/cart"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/internal/infrastructure/invoice"
	"github.com/xiebiao/bookplus/internal/infrastructure/mailer"
	"github.com/xiebiao/bookplus/internal/infrastructure/persistence/database"
	"github.com/xiebiao/bookplus/internal/interface/http/handler"
	"github.com/xiebiao/bookplus/internal/interface/http/middleware"
	"github.com/xiebiao/bookplus/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、令牌、发票与邮件
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedisClient,
	database.NewTxManager,
	provideTokenBlacklist,
	provideCartStorage,
	provideJWTManager,
	invoice.NewPDFRenderer,
	wire.Bind(new(order.InvoiceRenderer), new(*invoice.PDFRenderer)),
	mailer.NewSender,
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	database.NewBookRepository,
	database.NewOrderRepository,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	provideBookService,
	cart.NewContainer,
)

// applicationSet 用例与下单后任务
var applicationSet = wire.NewSet(
	appbook.NewListBooksUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewCreateBookUseCase,
	appbook.NewUpdateBookUseCase,
	appbook.NewDeleteBookUseCase,
	appbook.NewValidateCartUseCase,
	appcart.NewUseCase,
	apporder.NewPlaceOrderUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewUpdateOrderStatusUseCase,
	apporder.NewEditOrderUseCase,
	apporder.NewDownloadInvoiceUseCase,
	apporder.NewResendNotificationUseCase,
	apporder.NewOrderSummaryUseCase,
	admin.NewLoginUseCase,
	admin.NewLogoutUseCase,
	fulfillment.NewNotificationJob,
	wire.Bind(new(fulfillment.Runner), new(*fulfillment.NotificationJob)),
	provideDispatcher,
)

// interfaceSet 中间件、处理器与路由
var interfaceSet = wire.NewSet(
	middleware.NewAuthMiddleware,
	handler.NewBookHandler,
	handler.NewCartHandler,
	handler.NewOrderHandler,
	handler.NewAdminHandler,
	router.New,
)

// InitializeApp 组装整个应用,cleanup按依赖逆序释放资源
func InitializeApp(cfg *config.Config, log *logrus.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		NewApp,
	)
	return nil, nil, nil
}
