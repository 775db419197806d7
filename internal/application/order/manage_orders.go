package order

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/metrics"
)

// GetOrderUseCase 查询单个订单
type GetOrderUseCase struct {
	orderRepo order.Repository
}

func NewGetOrderUseCase(orderRepo order.Repository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, id uint) (*OrderDTO, error) {
	o, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(o), nil
}

// TrackOrderUseCase 客户凭订单号与下单邮箱查询订单
// 订单号不存在与邮箱不匹配返回同一个错误
type TrackOrderUseCase struct {
	orderRepo order.Repository
}

func NewTrackOrderUseCase(orderRepo order.Repository) *TrackOrderUseCase {
	return &TrackOrderUseCase{orderRepo: orderRepo}
}

func (uc *TrackOrderUseCase) Execute(ctx context.Context, orderNo, email string) (*OrderDTO, error) {
	orderNo = strings.TrimSpace(orderNo)
	email = strings.TrimSpace(email)
	if orderNo == "" || email == "" {
		return nil, order.ErrOrderNotFound
	}

	o, err := uc.orderRepo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(o.Customer.Email, email) {
		return nil, order.ErrOrderNotFound
	}
	return ToOrderDTO(o), nil
}

// ListOrdersUseCase 管理后台订单列表,最新的在前
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

// ListOrdersRequest Status为空表示全部
type ListOrdersRequest struct {
	Status   string
	Page     int
	PageSize int
}

type ListOrdersResponse struct {
	Orders   []*OrderDTO
	Total    int64
	Page     int
	PageSize int
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	params := order.ListParams{Page: req.Page, PageSize: req.PageSize}
	if req.Status != "" {
		st, err := order.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		params.Status = st
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	orders, total, err := uc.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	dtos := make([]*OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = ToOrderDTO(o)
	}
	return &ListOrdersResponse{
		Orders:   dtos,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

// UpdateOrderStatusUseCase 修改订单状态
// 每次修改都对照流转表;默认放行并标记非法变更,strict_transitions开启时拒绝
type UpdateOrderStatusUseCase struct {
	orderRepo order.Repository
	strict    bool
	log       *logrus.Logger
}

func NewUpdateOrderStatusUseCase(orderRepo order.Repository, cfg *config.Config, log *logrus.Logger) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{
		orderRepo: orderRepo,
		strict:    cfg.Order.StrictTransitions,
		log:       log,
	}
}

type UpdateOrderStatusRequest struct {
	OrderID uint
	Status  string
}

type UpdateOrderStatusResponse struct {
	Order             *OrderDTO `json:"order"`
	PreviousStatus    string    `json:"previous_status"`
	TransitionFlagged bool      `json:"transition_flagged"`
}

func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, req UpdateOrderStatusRequest) (*UpdateOrderStatusResponse, error) {
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	o, err := uc.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	flagged, err := o.SetStatus(to, uc.strict)
	if err != nil {
		metrics.OrderStatusChangesTotal.WithLabelValues(from.String(), to.String(), "rejected").Inc()
		uc.log.WithFields(logrus.Fields{
			"order_id": o.ID,
			"from":     from,
			"to":       to,
		}).Warn("order status transition rejected")
		return nil, err
	}

	if from != to {
		if err := uc.orderRepo.UpdateStatus(ctx, o.ID, to); err != nil {
			return nil, err
		}
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(from.String(), to.String(), strconv.FormatBool(flagged)).Inc()
	entry := uc.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"order_no": o.OrderNo,
		"from":     from,
		"to":       to,
	})
	if flagged {
		entry.Warn("order status changed outside transition table")
	} else {
		entry.Info("order status changed")
	}

	return &UpdateOrderStatusResponse{
		Order:             ToOrderDTO(o),
		PreviousStatus:    from.String(),
		TransitionFlagged: flagged,
	}, nil
}

// EditOrderUseCase 管理员编辑订单
// 不重新校验库存,也不重算总额;数量变化后通过TotalStale提示
type EditOrderUseCase struct {
	orderRepo order.Repository
	log       *logrus.Logger
}

func NewEditOrderUseCase(orderRepo order.Repository, log *logrus.Logger) *EditOrderUseCase {
	return &EditOrderUseCase{orderRepo: orderRepo, log: log}
}

type EditOrderRequest struct {
	OrderID uint
	Edit    order.Edit
}

type EditOrderResponse struct {
	Order      *OrderDTO `json:"order"`
	TotalStale bool      `json:"total_stale"`
}

func (uc *EditOrderUseCase) Execute(ctx context.Context, req EditOrderRequest) (*EditOrderResponse, error) {
	o, err := uc.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	changed, err := o.ApplyEdit(req.Edit)
	if err != nil {
		return nil, err
	}
	if err := uc.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	stale := o.TotalStale()
	uc.log.WithFields(logrus.Fields{
		"order_id":           o.ID,
		"quantities_changed": changed,
		"total_stale":        stale,
	}).Info("order edited")

	return &EditOrderResponse{Order: ToOrderDTO(o), TotalStale: stale}, nil
}

// ResendNotificationUseCase 重新派发发票与确认邮件
type ResendNotificationUseCase struct {
	orderRepo  order.Repository
	dispatcher order.EventDispatcher
}

func NewResendNotificationUseCase(orderRepo order.Repository, dispatcher order.EventDispatcher) *ResendNotificationUseCase {
	return &ResendNotificationUseCase{orderRepo: orderRepo, dispatcher: dispatcher}
}

func (uc *ResendNotificationUseCase) Execute(ctx context.Context, id uint) error {
	o, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	event := order.NewPlacedEvent(o)
	event.Resend = true
	if err := uc.dispatcher.Dispatch(context.WithoutCancel(ctx), event); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeNotification, "通知任务派发失败")
	}
	return nil
}
