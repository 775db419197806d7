package dto

import (
	"github.com/shopspring/decimal"
)

// CreateBookRequest HTTP新增图书请求
// price/stock省略表示未定价/不跟踪库存
type CreateBookRequest struct {
	SerialNumber int              `json:"serial_number" binding:"min=0" example:"12"`
	Class        int              `json:"class" binding:"min=0" example:"5"`
	Subject      string           `json:"subject" binding:"max=100" example:"Science"`
	Title        string           `json:"title" binding:"required,max=255" example:"General Science 5"`
	Author       string           `json:"author" binding:"max=100"`
	Publisher    string           `json:"publisher" binding:"max=100" example:"Oxford University Press"`
	Section      string           `json:"section" binding:"max=50" example:"A"`
	Remarks      string           `json:"remarks" binding:"max=500"`
	AcademicYear string           `json:"academic_year" binding:"max=20" example:"2024-2025"`
	Description  string           `json:"description" binding:"max=5000"`
	CoverImage   string           `json:"cover_image" binding:"omitempty,url,max=500"`
	Price        *decimal.Decimal `json:"price" swaggertype:"string" example:"450.00"`
	Stock        *int             `json:"stock" binding:"omitempty,min=0" example:"100"`
}

// UpdateBookRequest HTTP修改图书请求,省略的字段保持不变
// clear_price/clear_stock 取消定价/取消库存跟踪
type UpdateBookRequest struct {
	SerialNumber *int             `json:"serial_number" binding:"omitempty,min=0"`
	Class        *int             `json:"class" binding:"omitempty,min=0"`
	Subject      *string          `json:"subject" binding:"omitempty,max=100"`
	Title        *string          `json:"title" binding:"omitempty,max=255"`
	Author       *string          `json:"author" binding:"omitempty,max=100"`
	Publisher    *string          `json:"publisher" binding:"omitempty,max=100"`
	Section      *string          `json:"section" binding:"omitempty,max=50"`
	Remarks      *string          `json:"remarks" binding:"omitempty,max=500"`
	AcademicYear *string          `json:"academic_year" binding:"omitempty,max=20"`
	Description  *string          `json:"description" binding:"omitempty,max=5000"`
	CoverImage   *string          `json:"cover_image" binding:"omitempty,max=500"`
	Price        *decimal.Decimal `json:"price" swaggertype:"string"`
	ClearPrice   bool             `json:"clear_price"`
	Stock        *int             `json:"stock" binding:"omitempty,min=0"`
	ClearStock   bool             `json:"clear_stock"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword   string `form:"keyword" binding:"omitempty,max=100"`
	Title     string `form:"title" binding:"omitempty,max=255"`
	Author    string `form:"author" binding:"omitempty,max=100"`
	Subject   string `form:"subject" binding:"omitempty,max=100"`
	Publisher string `form:"publisher" binding:"omitempty,max=100"`
	Class     *int   `form:"class" binding:"omitempty,min=0"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=serial_asc title_asc price_asc price_desc created_at_desc" example:"serial_asc"`
}
