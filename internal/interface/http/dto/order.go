package dto

// CustomerRequest 客户信息
type CustomerRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"Asha Malik"`
	Email       string `json:"email" binding:"required,email,max=255" example:"asha@example.com"`
	Phone       string `json:"phone" binding:"max=50"`
	Institution string `json:"institution" binding:"max=200"`
	Mobile      string `json:"mobile" binding:"max=50"`
	Whatsapp    string `json:"whatsapp" binding:"max=50"`
}

// ShippingRequest 收货地址
type ShippingRequest struct {
	Address    string `json:"address" binding:"max=500"`
	City       string `json:"city" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
}

// CheckoutRequest HTTP下单请求
type CheckoutRequest struct {
	Customer     CustomerRequest       `json:"customer" binding:"required"`
	Shipping     ShippingRequest       `json:"shipping"`
	AcademicYear string                `json:"academic_year" binding:"max=20" example:"2024-2025"`
	Items        []CheckoutItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CheckoutItemRequest 订单明细项
type CheckoutItemRequest struct {
	BookID   uint `json:"book_id" binding:"required" example:"1"`
	Quantity int  `json:"quantity" binding:"required,min=1" example:"2"`
}

// ListOrdersRequest HTTP订单列表请求
type ListOrdersRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UpdateOrderStatusRequest HTTP修改订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required" example:"processing"`
}

// EditOrderRequest HTTP编辑订单请求,省略的部分保持不变
type EditOrderRequest struct {
	Customer     *CustomerRequest       `json:"customer"`
	Shipping     *ShippingRequest       `json:"shipping"`
	Items        []EditOrderItemRequest `json:"items" binding:"omitempty,dive"`
	AcademicYear *string                `json:"academic_year" binding:"omitempty,max=20"`
}

// EditOrderItemRequest 明细数量修改
type EditOrderItemRequest struct {
	ID       uint `json:"id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

// OrderSummaryRequest HTTP订单汇总请求
type OrderSummaryRequest struct {
	From      string `form:"from" binding:"omitempty,datetime=2006-01-02" example:"2024-01-01"`
	To        string `form:"to" binding:"omitempty,datetime=2006-01-02" example:"2024-12-31"`
	Status    string `form:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled"`
	Class     *int   `form:"class" binding:"omitempty,min=0"`
	Publisher string `form:"publisher" binding:"omitempty,max=100"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=quantity orders title"`
	Order     string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// TrackOrderQuery 客户查询订单,邮箱须与下单时一致
type TrackOrderQuery struct {
	Email string `form:"email" binding:"required,email"`
}
