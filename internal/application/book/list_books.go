package book

import (
	"context"
	"strings"

	"github.com/xiebiao/bookplus/internal/domain/book"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

// ListBooksUseCase 图书列表查询用例
// 支持按书名、作者、科目、出版社、年级筛选,关键词同时匹配多个字段
type ListBooksUseCase struct {
	bookService book.Service
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookService: bookService,
	}
}

// ListBooksRequest 列表查询请求DTO
type ListBooksRequest struct {
	Page      int // 页码(从1开始)
	PageSize  int
	Keyword   string
	Title     string
	Author    string
	Subject   string
	Publisher string
	Class     *int
	SortBy    string // serial_asc | title_asc | price_asc | price_desc | created_at_desc
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	List       []*BookDTO `json:"list"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

var sortOptions = map[string]bool{
	"":                true,
	"serial_asc":      true,
	"title_asc":       true,
	"price_asc":       true,
	"price_desc":      true,
	"created_at_desc": true,
}

// Execute 执行列表查询用例
// page默认1,pageSize默认20、最大100
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}
	if !sortOptions[req.SortBy] {
		return nil, apperrors.ErrInvalidParams.WithMessage("无效的排序方式: " + req.SortBy)
	}

	params := book.ListParams{
		Page:      req.Page,
		PageSize:  req.PageSize,
		Keyword:   strings.TrimSpace(req.Keyword),
		Title:     strings.TrimSpace(req.Title),
		Author:    strings.TrimSpace(req.Author),
		Subject:   strings.TrimSpace(req.Subject),
		Publisher: strings.TrimSpace(req.Publisher),
		Class:     req.Class,
		SortBy:    req.SortBy,
	}

	books, total, err := uc.bookService.ListBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	list := make([]*BookDTO, len(books))
	for i, b := range books {
		list[i] = ToBookDTO(b)
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize != 0 {
		totalPages++
	}

	return &ListBooksResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}
