package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookplus/internal/domain/book"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/internal/infrastructure/persistence/database"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/metrics"
	"github.com/xiebiao/bookplus/pkg/tracing"
)

const tracerName = "bookplus/application/order"

// 订单号碰撞时最多尝试的次数
const maxOrderNoAttempts = 3

// PlaceOrderUseCase 下单用例
//
// 流程:批量解析图书 → 按策略校验库存 → 构造明细快照 →
// 同一事务内条件扣减库存并保存订单 → 提交后派发发票与邮件任务
//
// 事务提交是订单的持久化点,之后的派发失败只记录日志,不回滚订单
type PlaceOrderUseCase struct {
	orderRepo  order.Repository
	bookRepo   book.Repository
	txManager  *database.TxManager
	dispatcher order.EventDispatcher
	checkout   config.CheckoutConfig
	log        *logrus.Logger

	newOrderNo func() string
}

// NewPlaceOrderUseCase 创建下单用例
func NewPlaceOrderUseCase(
	orderRepo order.Repository,
	bookRepo book.Repository,
	txManager *database.TxManager,
	dispatcher order.EventDispatcher,
	cfg *config.Config,
	log *logrus.Logger,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		orderRepo:  orderRepo,
		bookRepo:   bookRepo,
		txManager:  txManager,
		dispatcher: dispatcher,
		checkout:   cfg.Checkout,
		log:        log,
		newOrderNo: order.GenerateOrderNo,
	}
}

// PlaceOrderRequest 下单请求DTO
type PlaceOrderRequest struct {
	Customer     order.Customer
	Shipping     order.Shipping
	AcademicYear string
	Items        []PlaceOrderItem
}

// PlaceOrderItem 购物车中的一行
type PlaceOrderItem struct {
	BookID   uint
	Quantity int
}

// PlaceOrderResponse 下单响应DTO
type PlaceOrderResponse struct {
	OrderID   uint             `json:"order_id"`
	OrderNo   string           `json:"order_no"`
	Total     *decimal.Decimal `json:"total"`
	Status    string           `json:"status"`
	ItemCount int              `json:"item_count"`
	CreatedAt string           `json:"created_at"`
}

// Execute 执行下单
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, req PlaceOrderRequest) (resp *PlaceOrderResponse, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "PlaceOrder")
	defer func() {
		if err != nil {
			metrics.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		}
		tracing.EndSpan(span, err)
	}()

	lines, err := uc.normalize(req.Items)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("order.lines", len(lines)))

	// 1. 一次查询解析全部图书
	books, err := uc.resolve(ctx, lines)
	if err != nil {
		return nil, err
	}

	strict := uc.checkout.StockPolicy == config.StockPolicyStrict

	// 2. 严格策略下预检库存,提前给出友好错误;真正的保证在条件扣减
	if strict {
		for _, line := range lines {
			b := books[line.BookID]
			if !b.CanFulfil(line.Quantity) {
				return nil, book.NewInsufficientStockError(b, line.Quantity)
			}
		}
	}

	// 3. 明细快照
	items := make([]order.Item, len(lines))
	for i, line := range lines {
		items[i] = snapshot(books[line.BookID], line.Quantity)
	}

	academicYear := strings.TrimSpace(req.AcademicYear)
	if academicYear == "" {
		academicYear = uc.checkout.DefaultAcademicYear
	}

	newOrder, err := order.NewOrder(uc.newOrderNo(), req.Customer, req.Shipping, items, academicYear)
	if err != nil {
		return nil, err
	}

	// 4-5. 扣减库存与保存订单在同一事务中,任何一步失败都不留下痕迹
	// 订单号与已有订单冲突时整个事务已回滚,换号后重做
	for attempt := 1; ; attempt++ {
		err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
			return uc.commit(txCtx, newOrder, lines, books, strict)
		})
		if err == nil || !errors.Is(err, order.ErrDuplicateOrderNo) || attempt >= maxOrderNoAttempts {
			break
		}
		uc.log.WithFields(logrus.Fields{
			"order_no": newOrder.OrderNo,
			"attempt":  attempt,
		}).Warn("order number collision, retrying")
		newOrder.OrderNo = uc.newOrderNo()
	}
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlacedTotal.Inc()
	metrics.OrderPlacementDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int64("order.id", int64(newOrder.ID)))

	uc.log.WithFields(logrus.Fields{
		"order_id":   newOrder.ID,
		"order_no":   newOrder.OrderNo,
		"items":      newOrder.ItemCount(),
		"policy":     uc.checkout.StockPolicy,
		"trace_id":   tracing.ExtractTraceID(ctx),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("order placed")

	// 6-7. 发票与邮件异步处理,请求取消不影响派发
	if derr := uc.dispatcher.Dispatch(context.WithoutCancel(ctx), order.NewPlacedEvent(newOrder)); derr != nil {
		uc.log.WithFields(logrus.Fields{
			"order_id": newOrder.ID,
			"order_no": newOrder.OrderNo,
		}).WithError(derr).Error("dispatch order notification failed")
	}

	return &PlaceOrderResponse{
		OrderID:   newOrder.ID,
		OrderNo:   newOrder.OrderNo,
		Total:     newOrder.Total,
		Status:    newOrder.Status.String(),
		ItemCount: newOrder.ItemCount(),
		CreatedAt: newOrder.CreatedAt.Format(timeLayout),
	}, nil
}

// commit 条件扣减库存并保存订单,须在事务内调用
func (uc *PlaceOrderUseCase) commit(ctx context.Context, newOrder *order.Order, lines []PlaceOrderItem, books map[uint]*book.Book, strict bool) error {
	if strict {
		for _, line := range lines {
			if !books[line.BookID].TracksStock() {
				continue
			}
			if err := uc.bookRepo.DecrStock(ctx, line.BookID, line.Quantity); err != nil {
				if errors.Is(err, book.ErrInsufficientStock) {
					// 预检通过但被并发订单抢先
					metrics.StockConflictsTotal.Inc()
				}
				return err
			}
		}
	}
	return uc.orderRepo.Create(ctx, newOrder)
}

// normalize 校验数量并合并重复的图书行,保持首次出现的顺序
func (uc *PlaceOrderUseCase) normalize(items []PlaceOrderItem) ([]PlaceOrderItem, error) {
	if len(items) == 0 {
		return nil, order.ErrEmptyItems
	}

	index := make(map[uint]int, len(items))
	lines := make([]PlaceOrderItem, 0, len(items))
	for _, item := range items {
		if item.BookID == 0 {
			return nil, apperrors.ErrInvalidParams.WithMessage("图书ID无效")
		}
		if item.Quantity < 1 {
			return nil, order.ErrInvalidQuantity
		}
		if i, ok := index[item.BookID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.BookID] = len(lines)
		lines = append(lines, item)
	}

	if limit := uc.checkout.MaxLineQuantity; limit > 0 {
		for _, line := range lines {
			if line.Quantity > limit {
				return nil, apperrors.ErrInvalidParams.WithMessage("单本图书购买数量超过上限")
			}
		}
	}
	return lines, nil
}

func (uc *PlaceOrderUseCase) resolve(ctx context.Context, lines []PlaceOrderItem) (map[uint]*book.Book, error) {
	ids := make([]uint, len(lines))
	for i, line := range lines {
		ids[i] = line.BookID
	}

	books, err := uc.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := books[id]; !ok {
			return nil, book.NewNotFoundError(id)
		}
	}
	return books, nil
}

// snapshot 复制下单时的图书字段,之后图书的修改不影响订单
func snapshot(b *book.Book, quantity int) order.Item {
	item := order.Item{
		BookID:       b.ID,
		SerialNumber: b.SerialNumber,
		Class:        b.Class,
		Subject:      b.Subject,
		Title:        b.Title,
		Author:       b.Author,
		Publisher:    b.Publisher,
		Section:      b.Section,
		Quantity:     quantity,
	}
	if b.Price != nil {
		price := *b.Price
		item.Price = &price
	}
	return item
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, book.ErrBookNotFound):
		return "book_not_found"
	case errors.Is(err, book.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, order.ErrDuplicateOrderNo):
		return "conflict"
	case apperrors.GetAppError(err).Code >= apperrors.ErrCodeInternal:
		return "persistence"
	default:
		return "invalid_params"
	}
}
