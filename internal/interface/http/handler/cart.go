package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/bookplus/internal/application/cart"
	"github.com/xiebiao/bookplus/internal/interface/http/dto"
	"github.com/xiebiao/bookplus/pkg/response"
)

// CartHandler 访客购物车处理器
// 购物车用token标识,不需要登录
type CartHandler struct {
	cartUseCase *appcart.UseCase
}

func NewCartHandler(cartUseCase *appcart.UseCase) *CartHandler {
	return &CartHandler{cartUseCase: cartUseCase}
}

// CreateCart 创建购物车
// @Summary      创建购物车
// @Tags         购物车
// @Produce      json
// @Success      201 {object} response.Response{data=appcart.View}
// @Router       /api/v1/carts [post]
func (h *CartHandler) CreateCart(c *gin.Context) {
	view, err := h.cartUseCase.Create(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// GetCart 查看购物车
// @Summary      查看购物车
// @Description  按当前目录补全书名与价格,已删除的图书标记missing
// @Tags         购物车
// @Produce      json
// @Param        token path string true "购物车token"
// @Success      200 {object} response.Response{data=appcart.View}
// @Failure      404 {object} response.Response "购物车不存在"
// @Router       /api/v1/carts/{token} [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.cartUseCase.Get(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// SetItem 设置购物车中某本书的数量
// @Summary      设置数量
// @Description  quantity为0表示移除
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Param        token   path string                 true "购物车token"
// @Param        request body dto.SetCartItemRequest true "图书与数量"
// @Success      200 {object} response.Response{data=appcart.View}
// @Failure      404 {object} response.Response "购物车或图书不存在"
// @Router       /api/v1/carts/{token}/items [put]
func (h *CartHandler) SetItem(c *gin.Context) {
	var req dto.SetCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	view, err := h.cartUseCase.SetQuantity(c.Request.Context(), c.Param("token"), req.BookID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// RemoveItem 移除购物车中的图书
// @Summary      移除图书
// @Tags         购物车
// @Produce      json
// @Param        token   path string true "购物车token"
// @Param        book_id path int    true "图书ID"
// @Success      200 {object} response.Response{data=appcart.View}
// @Failure      404 {object} response.Response "购物车不存在"
// @Router       /api/v1/carts/{token}/items/{book_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	bookID, ok := pathID(c, "book_id")
	if !ok {
		return
	}

	view, err := h.cartUseCase.Remove(c.Request.Context(), c.Param("token"), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// ClearCart 清空并删除购物车
// @Summary      清空购物车
// @Tags         购物车
// @Produce      json
// @Param        token path string true "购物车token"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "购物车不存在"
// @Router       /api/v1/carts/{token} [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartUseCase.Clear(c.Request.Context(), c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
