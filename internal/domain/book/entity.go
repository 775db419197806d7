package book

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体(聚合根)
// 同一张表同时承载教材目录(序号/年级/科目)与定价商品字段:
// Price为nil表示未定价,Stock为nil表示不跟踪库存
type Book struct {
	ID           uint
	SerialNumber int    // 目录序号
	Class        int    // 年级
	Subject      string // 科目
	Title        string // 书名(必填)
	Author       string
	Publisher    string
	Section      string // 分册/分区
	Remarks      string
	AcademicYear string // 学年,如 2024-2025
	Description  string
	CoverImage   string
	Price        *decimal.Decimal
	Stock        *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate 校验字段约束
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrTitleRequired
	}
	if b.Price != nil && b.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if b.Stock != nil && *b.Stock < 0 {
		return ErrInvalidStock
	}
	if b.Class < 0 || b.SerialNumber < 0 {
		return ErrInvalidParams
	}
	return nil
}

// TracksStock 是否跟踪库存
func (b *Book) TracksStock() bool {
	return b.Stock != nil
}

// IsPriced 是否已定价
func (b *Book) IsPriced() bool {
	return b.Price != nil
}

// Available 可售数量,不跟踪库存时返回-1
func (b *Book) Available() int {
	if b.Stock == nil {
		return -1
	}
	return *b.Stock
}

// CanFulfil 库存是否满足数量
func (b *Book) CanFulfil(quantity int) bool {
	return b.Stock == nil || *b.Stock >= quantity
}

// Patch 图书部分更新,nil字段保持不变
type Patch struct {
	SerialNumber *int
	Class        *int
	Subject      *string
	Title        *string
	Author       *string
	Publisher    *string
	Section      *string
	Remarks      *string
	AcademicYear *string
	Description  *string
	CoverImage   *string
	Price        *decimal.Decimal
	ClearPrice   bool // 取消定价
	Stock        *int
	ClearStock   bool // 取消库存跟踪
}

// Apply 应用部分更新并校验
func (b *Book) Apply(p Patch) error {
	setInt(&b.SerialNumber, p.SerialNumber)
	setInt(&b.Class, p.Class)
	setString(&b.Subject, p.Subject)
	setString(&b.Title, p.Title)
	setString(&b.Author, p.Author)
	setString(&b.Publisher, p.Publisher)
	setString(&b.Section, p.Section)
	setString(&b.Remarks, p.Remarks)
	setString(&b.AcademicYear, p.AcademicYear)
	setString(&b.Description, p.Description)
	setString(&b.CoverImage, p.CoverImage)

	switch {
	case p.ClearPrice:
		b.Price = nil
	case p.Price != nil:
		price := *p.Price
		b.Price = &price
	}
	switch {
	case p.ClearStock:
		b.Stock = nil
	case p.Stock != nil:
		stock := *p.Stock
		b.Stock = &stock
	}

	b.UpdatedAt = time.Now()
	return b.Validate()
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
