package order

import (
	"context"
	"time"
)

// RoutingKeyPlaced 下单事件的路由键
const RoutingKeyPlaced = "order.placed"

// PlacedEvent 订单已提交事件,在事务提交后派发
type PlacedEvent struct {
	OrderID    uint      `json:"order_id"`
	OrderNo    string    `json:"order_no"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
	Resend     bool      `json:"resend,omitempty"` // 管理员手动重发,忽略已通知标记
}

// NewPlacedEvent 由已持久化的订单构造事件
func NewPlacedEvent(o *Order) PlacedEvent {
	return PlacedEvent{
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		Email:      o.Customer.Email,
		OccurredAt: time.Now(),
	}
}

// EventDispatcher 派发下单后的异步任务(发票生成与确认邮件)
// 派发失败不影响已提交的订单
type EventDispatcher interface {
	Dispatch(ctx context.Context, event PlacedEvent) error
}
