package book

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookplus/internal/domain/book"
)

// GetBookUseCase 查询单本图书
type GetBookUseCase struct {
	bookService book.Service
}

func NewGetBookUseCase(bookService book.Service) *GetBookUseCase {
	return &GetBookUseCase{bookService: bookService}
}

func (uc *GetBookUseCase) Execute(ctx context.Context, id uint) (*BookDTO, error) {
	b, err := uc.bookService.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToBookDTO(b), nil
}

// CreateBookUseCase 管理员新增图书
// 字段校验由领域实体负责(书名必填、价格与库存不能为负)
type CreateBookUseCase struct {
	bookService book.Service
	log         *logrus.Logger
}

func NewCreateBookUseCase(bookService book.Service, log *logrus.Logger) *CreateBookUseCase {
	return &CreateBookUseCase{bookService: bookService, log: log}
}

// CreateBookRequest 新增请求DTO,Price/Stock为nil表示未定价/不跟踪库存
type CreateBookRequest struct {
	SerialNumber int
	Class        int
	Subject      string
	Title        string
	Author       string
	Publisher    string
	Section      string
	Remarks      string
	AcademicYear string
	Description  string
	CoverImage   string
	Price        *decimal.Decimal
	Stock        *int
}

func (uc *CreateBookUseCase) Execute(ctx context.Context, req CreateBookRequest) (*BookDTO, error) {
	b, err := uc.bookService.CreateBook(ctx, &book.Book{
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
		return nil, err
	}

	uc.log.WithFields(logrus.Fields{"book_id": b.ID, "title": b.Title}).Info("book created")
	return ToBookDTO(b), nil
}

// UpdateBookUseCase 管理员修改图书(部分更新)
// 已下订单保存的是快照,不受影响
type UpdateBookUseCase struct {
	bookService book.Service
	log         *logrus.Logger
}

func NewUpdateBookUseCase(bookService book.Service, log *logrus.Logger) *UpdateBookUseCase {
	return &UpdateBookUseCase{bookService: bookService, log: log}
}

func (uc *UpdateBookUseCase) Execute(ctx context.Context, id uint, patch book.Patch) (*BookDTO, error) {
	b, err := uc.bookService.UpdateBook(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	uc.log.WithField("book_id", b.ID).Info("book updated")
	return ToBookDTO(b), nil
}

// DeleteBookUseCase 管理员删除图书(物理删除)
type DeleteBookUseCase struct {
	bookService book.Service
	log         *logrus.Logger
}

func NewDeleteBookUseCase(bookService book.Service, log *logrus.Logger) *DeleteBookUseCase {
	return &DeleteBookUseCase{bookService: bookService, log: log}
}

func (uc *DeleteBookUseCase) Execute(ctx context.Context, id uint) error {
	if err := uc.bookService.DeleteBook(ctx, id); err != nil {
		return err
	}
	uc.log.WithField("book_id", id).Info("book deleted")
	return nil
}
