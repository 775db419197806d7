package book

import (
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

// 图书领域错误定义
var (
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrInsufficientStock Data中携带 StockShortage
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	ErrTitleRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空")
	ErrInvalidPrice  = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")
	ErrInvalidStock  = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")
	ErrInvalidParams = apperrors.New(apperrors.ErrCodeInvalidParams, "年级与序号不能为负数")
)

// StockShortage 库存不足详情
type StockShortage struct {
	BookID         uint   `json:"book_id"`
	Title          string `json:"title"`
	Requested      int    `json:"requested"`
	AvailableStock int    `json:"available_stock"`
}

// NewInsufficientStockError 构造携带详情的库存不足错误
func NewInsufficientStockError(b *Book, requested int) *apperrors.AppError {
	return ErrInsufficientStock.
		WithMessage("《" + b.Title + "》库存不足").
		WithData(StockShortage{
			BookID:         b.ID,
			Title:          b.Title,
			Requested:      requested,
			AvailableStock: b.Available(),
		})
}

// NotFoundDetail 图书不存在详情
type NotFoundDetail struct {
	BookID uint `json:"book_id"`
}

// NewNotFoundError 构造携带图书ID的不存在错误
func NewNotFoundError(id uint) *apperrors.AppError {
	return ErrBookNotFound.WithData(NotFoundDetail{BookID: id})
}
