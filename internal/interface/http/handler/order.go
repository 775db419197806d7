package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookplus/internal/application/order"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/interface/http/dto"
	"github.com/xiebiao/bookplus/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	placeOrderUseCase         *apporder.PlaceOrderUseCase
	getOrderUseCase           *apporder.GetOrderUseCase
	trackOrderUseCase         *apporder.TrackOrderUseCase
	listOrdersUseCase         *apporder.ListOrdersUseCase
	updateOrderStatusUseCase  *apporder.UpdateOrderStatusUseCase
	editOrderUseCase          *apporder.EditOrderUseCase
	downloadInvoiceUseCase    *apporder.DownloadInvoiceUseCase
	resendNotificationUseCase *apporder.ResendNotificationUseCase
	orderSummaryUseCase       *apporder.OrderSummaryUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	placeOrderUseCase *apporder.PlaceOrderUseCase,
	getOrderUseCase *apporder.GetOrderUseCase,
	trackOrderUseCase *apporder.TrackOrderUseCase,
	listOrdersUseCase *apporder.ListOrdersUseCase,
	updateOrderStatusUseCase *apporder.UpdateOrderStatusUseCase,
	editOrderUseCase *apporder.EditOrderUseCase,
	downloadInvoiceUseCase *apporder.DownloadInvoiceUseCase,
	resendNotificationUseCase *apporder.ResendNotificationUseCase,
	orderSummaryUseCase *apporder.OrderSummaryUseCase,
) *OrderHandler {
	return &OrderHandler{
		placeOrderUseCase:         placeOrderUseCase,
		getOrderUseCase:           getOrderUseCase,
		trackOrderUseCase:         trackOrderUseCase,
		listOrdersUseCase:         listOrdersUseCase,
		updateOrderStatusUseCase:  updateOrderStatusUseCase,
		editOrderUseCase:          editOrderUseCase,
		downloadInvoiceUseCase:    downloadInvoiceUseCase,
		resendNotificationUseCase: resendNotificationUseCase,
		orderSummaryUseCase:       orderSummaryUseCase,
	}
}

// Checkout 下单
// @Summary      下单
// @Description  校验库存后在同一事务内扣减库存并保存订单,发票与确认邮件在提交后异步发送
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        request body dto.CheckoutRequest true "客户信息与购物车"
// @Success      201 {object} response.Response{data=apporder.PlaceOrderResponse} "下单成功"
// @Failure      400 {object} response.Response "参数错误或库存不足"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	items := make([]apporder.PlaceOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = apporder.PlaceOrderItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		}
	}

	result, err := h.placeOrderUseCase.Execute(c.Request.Context(), apporder.PlaceOrderRequest{
		Customer:     toCustomer(req.Customer),
		Shipping:     toShipping(req.Shipping),
		AcademicYear: req.AcademicYear,
		Items:        items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// TrackOrder 客户查询订单
// @Summary      查询订单
// @Description  凭订单号与下单邮箱查询,不匹配时返回订单不存在
// @Tags         订单
// @Produce      json
// @Param        order_no path  string true "订单号"
// @Param        email    query string true "下单邮箱"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{order_no} [get]
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	var query dto.TrackOrderQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.trackOrderUseCase.Execute(c.Request.Context(), c.Param("order_no"), query.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/admin/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.getOrderUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders 订单列表(新订单在前)
// @Summary      订单列表
// @Tags         订单管理
// @Produce      json
// @Security     BearerAuth
// @Param        status    query string false "状态" Enums(pending, processing, shipped, delivered, cancelled)
// @Param        page      query int    false "页码" default(1)
// @Param        page_size query int    false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]apporder.OrderDTO}}
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/admin/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.listOrdersUseCase.Execute(c.Request.Context(), apporder.ListOrdersRequest{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Orders, result.Total, result.Page, result.PageSize)
}

// UpdateOrderStatus 修改订单状态
// @Summary      修改订单状态
// @Description  非常规流转按配置记录告警或拒绝
// @Tags         订单管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                          true "订单ID"
// @Param        request body dto.UpdateOrderStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.UpdateOrderStatusResponse}
// @Failure      400 {object} response.Response "非法状态"
// @Failure      404 {object} response.Response "订单不存在"
// @Failure      409 {object} response.Response "状态流转被拒绝"
// @Router       /api/v1/admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.updateOrderStatusUseCase.Execute(c.Request.Context(), apporder.UpdateOrderStatusRequest{
		OrderID: id,
		Status:  req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// EditOrder 编辑订单
// @Summary      编辑订单
// @Description  修改客户信息、收货地址、学年或明细数量;不调整库存,也不重算总额
// @Tags         订单管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                  true "订单ID"
// @Param        request body dto.EditOrderRequest true "修改内容"
// @Success      200 {object} response.Response{data=apporder.EditOrderResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "订单或明细不存在"
// @Router       /api/v1/admin/orders/{id} [patch]
func (h *OrderHandler) EditOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.EditOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	edit := order.Edit{AcademicYear: req.AcademicYear}
	if req.Customer != nil {
		customer := toCustomer(*req.Customer)
		edit.Customer = &customer
	}
	if req.Shipping != nil {
		shipping := toShipping(*req.Shipping)
		edit.Shipping = &shipping
	}
	for _, item := range req.Items {
		edit.Quantities = append(edit.Quantities, order.ItemQuantity{ItemID: item.ID, Quantity: item.Quantity})
	}

	result, err := h.editOrderUseCase.Execute(c.Request.Context(), apporder.EditOrderRequest{
		OrderID: id,
		Edit:    edit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DownloadInvoice 下载发票
// @Summary      下载发票PDF
// @Tags         订单管理
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {file} file
// @Failure      404 {object} response.Response "订单不存在"
// @Failure      500 {object} response.Response "发票生成失败"
// @Router       /api/v1/admin/orders/{id}/invoice [get]
func (h *OrderHandler) DownloadInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, err := h.downloadInvoiceUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// ResendNotification 重新发送发票与确认邮件
// @Summary      重发通知
// @Description  重新派发通知任务,即使订单已发送过
// @Tags         订单管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      202 {object} response.Response
// @Failure      404 {object} response.Response "订单不存在"
// @Failure      500 {object} response.Response "派发失败"
// @Router       /api/v1/admin/orders/{id}/notify [post]
func (h *OrderHandler) ResendNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.resendNotificationUseCase.Execute(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Response{
		Code:    0,
		Message: "success",
		Data:    gin.H{"order_id": id, "dispatched": true},
	})
}

// OrderSummary 按图书汇总订购数量
// @Summary      订购汇总
// @Description  按日期范围/状态/年级/出版社筛选订单,汇总每本书的数量
// @Tags         订单管理
// @Produce      json
// @Security     BearerAuth
// @Param        from      query string false "开始日期 YYYY-MM-DD"
// @Param        to        query string false "结束日期 YYYY-MM-DD(包含)"
// @Param        status    query string false "状态"
// @Param        class     query int    false "年级"
// @Param        publisher query string false "出版社"
// @Param        sort_by   query string false "排序字段" Enums(quantity, orders, title)
// @Param        order     query string false "排序方向" Enums(asc, desc)
// @Success      200 {object} response.Response{data=apporder.SummaryResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/admin/orders/summary [get]
func (h *OrderHandler) OrderSummary(c *gin.Context) {
	req, ok := bindSummary(c)
	if !ok {
		return
	}

	result, err := h.orderSummaryUseCase.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ExportOrderSummary 导出订购汇总CSV
// @Summary      导出订购汇总
// @Tags         订单管理
// @Produce      text/csv
// @Security     BearerAuth
// @Param        from      query string false "开始日期 YYYY-MM-DD"
// @Param        to        query string false "结束日期 YYYY-MM-DD(包含)"
// @Param        status    query string false "状态"
// @Param        class     query int    false "年级"
// @Param        publisher query string false "出版社"
// @Param        sort_by   query string false "排序字段" Enums(quantity, orders, title)
// @Param        order     query string false "排序方向" Enums(asc, desc)
// @Success      200 {file} file
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/admin/orders/summary/export [get]
func (h *OrderHandler) ExportOrderSummary(c *gin.Context) {
	req, ok := bindSummary(c)
	if !ok {
		return
	}

	// 先写入缓冲区,出错时仍可返回JSON错误
	var buf bytes.Buffer
	if err := h.orderSummaryUseCase.ExportCSV(c.Request.Context(), req, &buf); err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("order-summary-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func bindSummary(c *gin.Context) (apporder.SummaryRequest, bool) {
	var req dto.OrderSummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return apporder.SummaryRequest{}, false
	}
	return apporder.SummaryRequest{
		From:      req.From,
		To:        req.To,
		Status:    req.Status,
		Class:     req.Class,
		Publisher: req.Publisher,
		SortBy:    req.SortBy,
		Order:     req.Order,
	}, true
}

func toCustomer(r dto.CustomerRequest) order.Customer {
	return order.Customer{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Institution: r.Institution,
		Mobile:      r.Mobile,
		Whatsapp:    r.Whatsapp,
	}
}

func toShipping(r dto.ShippingRequest) order.Shipping {
	return order.Shipping{
		Address:    r.Address,
		City:       r.City,
		PostalCode: r.PostalCode,
	}
}
