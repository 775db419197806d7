package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookplus/internal/application/book"
	"github.com/xiebiao/bookplus/internal/domain/book"
	"github.com/xiebiao/bookplus/internal/interface/http/dto"
	"github.com/xiebiao/bookplus/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listBooksUseCase    *appbook.ListBooksUseCase
	getBookUseCase      *appbook.GetBookUseCase
	createBookUseCase   *appbook.CreateBookUseCase
	updateBookUseCase   *appbook.UpdateBookUseCase
	deleteBookUseCase   *appbook.DeleteBookUseCase
	validateCartUseCase *appbook.ValidateCartUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	listBooksUseCase *appbook.ListBooksUseCase,
	getBookUseCase *appbook.GetBookUseCase,
	createBookUseCase *appbook.CreateBookUseCase,
	updateBookUseCase *appbook.UpdateBookUseCase,
	deleteBookUseCase *appbook.DeleteBookUseCase,
	validateCartUseCase *appbook.ValidateCartUseCase,
) *BookHandler {
	return &BookHandler{
		listBooksUseCase:    listBooksUseCase,
		getBookUseCase:      getBookUseCase,
		createBookUseCase:   createBookUseCase,
		updateBookUseCase:   updateBookUseCase,
		deleteBookUseCase:   deleteBookUseCase,
		validateCartUseCase: validateCartUseCase,
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  按书名/作者/科目/出版社/年级/关键字筛选,分页返回
// @Tags         图书
// @Produce      json
// @Param        page       query int    false "页码" default(1)
// @Param        page_size  query int    false "每页数量" default(20)
// @Param        keyword    query string false "关键字(书名/作者/科目/出版社)"
// @Param        title      query string false "书名"
// @Param        author     query string false "作者"
// @Param        subject    query string false "科目"
// @Param        publisher  query string false "出版社"
// @Param        class      query int    false "年级"
// @Param        sort_by    query string false "排序" Enums(serial_asc, title_asc, price_asc, price_desc, created_at_desc)
// @Success      200 {object} response.Response{data=appbook.ListBooksResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:      req.Page,
		PageSize:  req.PageSize,
		Keyword:   req.Keyword,
		Title:     req.Title,
		Author:    req.Author,
		Subject:   req.Subject,
		Publisher: req.Publisher,
		Class:     req.Class,
		SortBy:    req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookDTO}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.getBookUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateBook 新增图书
// @Summary      新增图书
// @Description  管理员新增图书,price/stock省略表示未定价/不跟踪库存
// @Tags         图书管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=appbook.BookDTO}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/admin/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.createBookUseCase.Execute(c.Request.Context(), appbook.CreateBookRequest{
		SerialNumber: req.SerialNumber,
		Class:        req.Class,
		Subject:      req.Subject,
		Title:        req.Title,
		Author:       req.Author,
		Publisher:    req.Publisher,
		Section:      req.Section,
		Remarks:      req.Remarks,
		AcademicYear: req.AcademicYear,
		Description:  req.Description,
		CoverImage:   req.CoverImage,
		Price:        req.Price,
		Stock:        req.Stock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateBook 修改图书
// @Summary      修改图书
// @Description  部分更新,省略的字段保持不变
// @Tags         图书管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                   true "图书ID"
// @Param        request body dto.UpdateBookRequest true "修改内容"
// @Success      200 {object} response.Response{data=appbook.BookDTO}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/admin/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.updateBookUseCase.Execute(c.Request.Context(), id, book.Patch{
		SerialNumber: req.SerialNumber,
		Class:        req.Class,
		Subject:      req.Subject,
		Title:        req.Title,
		Author:       req.Author,
		Publisher:    req.Publisher,
		Section:      req.Section,
		Remarks:      req.Remarks,
		AcademicYear: req.AcademicYear,
		Description:  req.Description,
		CoverImage:   req.CoverImage,
		Price:        req.Price,
		ClearPrice:   req.ClearPrice,
		Stock:        req.Stock,
		ClearStock:   req.ClearStock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Description  已下订单中的明细是快照,不受影响
// @Tags         图书管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/admin/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deleteBookUseCase.Execute(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// ValidateCart 结账前校验购物车
// @Summary      校验购物车
// @Description  只读检查每一行的图书是否存在、库存是否足够、价格是否变化
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Param        request body dto.ValidateCartRequest true "购物车内容"
// @Success      200 {object} response.Response{data=[]appbook.CartLineResult}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/cart/validate [post]
func (h *BookHandler) ValidateCart(c *gin.Context) {
	var req dto.ValidateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	lines := make([]appbook.CartLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = appbook.CartLine{BookID: item.BookID, Quantity: item.Quantity, Price: item.Price}
	}

	results, err := h.validateCartUseCase.Execute(c.Request.Context(), lines)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, results)
}
