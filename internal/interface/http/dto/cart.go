package dto

import (
	"github.com/shopspring/decimal"
)

// SetCartItemRequest 设置购物车中某本书的数量,0表示移除
type SetCartItemRequest struct {
	BookID   uint `json:"book_id" binding:"required" example:"1"`
	Quantity int  `json:"quantity" binding:"min=0" example:"2"`
}

// ValidateCartRequest 结账前校验购物车
type ValidateCartRequest struct {
	Items []ValidateCartItem `json:"items" binding:"required,dive"`
}

// ValidateCartItem price为客户端显示的价格,省略时不比较价格
type ValidateCartItem struct {
	BookID   uint             `json:"book_id" binding:"required"`
	Quantity int              `json:"quantity" binding:"required,min=1"`
	Price    *decimal.Decimal `json:"price" swaggertype:"string"`
}

// AdminLoginRequest 管理员登录
type AdminLoginRequest struct {
	Passcode string `json:"passcode" binding:"required"`
}
