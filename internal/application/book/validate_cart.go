package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookplus/internal/domain/book"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

// 校验失败原因
const (
	CartErrNotFound          = "book not found"
	CartErrInsufficientStock = "insufficient stock"
	CartErrPriceChanged      = "price has changed"
)

// ValidateCartUseCase 结账前对照当前目录校验购物车(只读)
type ValidateCartUseCase struct {
	bookRepo book.Repository
}

func NewValidateCartUseCase(bookRepo book.Repository) *ValidateCartUseCase {
	return &ValidateCartUseCase{bookRepo: bookRepo}
}

// CartLine 客户端购物车中的一行,Price为客户端看到的价格(可选)
type CartLine struct {
	BookID   uint
	Quantity int
	Price    *decimal.Decimal
}

// CartLineResult 单行校验结果
//
// UpdatePrice为true时客户端应改用CurrentPrice;
// UpdateQuantity非nil时客户端应把数量降到可售数量;
// Remove为true时图书已不存在
type CartLineResult struct {
	BookID         uint             `json:"book_id"`
	Valid          bool             `json:"valid"`
	Error          string           `json:"error,omitempty"`
	CurrentPrice   *decimal.Decimal `json:"current_price"`
	AvailableStock *int             `json:"available_stock"`
	UpdatePrice    bool             `json:"update_price"`
	UpdateQuantity *int             `json:"update_quantity"`
	Remove         bool             `json:"remove"`
}

func (uc *ValidateCartUseCase) Execute(ctx context.Context, lines []CartLine) ([]CartLineResult, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		if line.BookID == 0 || line.Quantity < 1 {
			return nil, apperrors.ErrInvalidParams.WithMessage("购物车行的图书ID与数量必须大于0")
		}
		ids = append(ids, line.BookID)
	}
	if len(ids) == 0 {
		return []CartLineResult{}, nil
	}

	books, err := uc.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]CartLineResult, len(lines))
	for i, line := range lines {
		results[i] = validateLine(line, books[line.BookID])
	}
	return results, nil
}

func validateLine(line CartLine, b *book.Book) CartLineResult {
	if b == nil {
		return CartLineResult{BookID: line.BookID, Error: CartErrNotFound, Remove: true}
	}

	result := CartLineResult{
		BookID:         b.ID,
		CurrentPrice:   b.Price,
		AvailableStock: b.Stock,
	}

	stockOK := b.CanFulfil(line.Quantity)
	priceOK := line.Price == nil || (b.Price != nil && b.Price.Equal(*line.Price))

	if !stockOK {
		available := *b.Stock
		result.UpdateQuantity = &available
		result.Error = CartErrInsufficientStock
	}
	if !priceOK {
		result.UpdatePrice = true
		if result.Error == "" {
			result.Error = CartErrPriceChanged
		}
	}
	result.Valid = stockOK && priceOK
	return result
}
