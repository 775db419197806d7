package book

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookplus/internal/domain/book"
)

const timeLayout = "2006-01-02 15:04:05"

// BookDTO 图书详情
// Price为null表示未定价,Stock为null表示不跟踪库存
type BookDTO struct {
	ID           uint             `json:"id"`
	SerialNumber int              `json:"serial_number"`
	Class        int              `json:"class"`
	Subject      string           `json:"subject"`
	Title        string           `json:"title"`
	Author       string           `json:"author,omitempty"`
	Publisher    string           `json:"publisher"`
	Section      string           `json:"section"`
	Remarks      string           `json:"remarks,omitempty"`
	AcademicYear string           `json:"academic_year"`
	Description  string           `json:"description,omitempty"`
	CoverImage   string           `json:"cover_image,omitempty"`
	Price        *decimal.Decimal `json:"price"`
	Stock        *int             `json:"stock"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// ToBookDTO 领域实体 → DTO
func ToBookDTO(b *book.Book) *BookDTO {
	return &BookDTO{
		ID:           b.ID,
		SerialNumber: b.SerialNumber,
		Class:        b.Class,
		Subject:      b.Subject,
		Title:        b.Title,
		Author:       b.Author,
		Publisher:    b.Publisher,
		Section:      b.Section,
		Remarks:      b.Remarks,
		AcademicYear: b.AcademicYear,
		Description:  b.Description,
		CoverImage:   b.CoverImage,
		Price:        b.Price,
		Stock:        b.Stock,
		CreatedAt:    b.CreatedAt.Format(timeLayout),
		UpdatedAt:    b.UpdatedAt.Format(timeLayout),
	}
}
