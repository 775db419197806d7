// Package cart 访客购物车用例
//
// 购物车只保存图书ID与数量,读取时用当前目录补全书名与价格。
package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookplus/internal/domain/book"
	"github.com/xiebiao/bookplus/internal/domain/cart"
)

const timeLayout = "2006-01-02 15:04:05"

// LineView 购物车行,Missing为true表示图书已被删除
type LineView struct {
	BookID    uint             `json:"book_id"`
	Quantity  int              `json:"quantity"`
	Title     string           `json:"title"`
	Class     int              `json:"class"`
	Price     *decimal.Decimal `json:"price"`
	Amount    *decimal.Decimal `json:"amount"`
	Available *int             `json:"available_stock"`
	Missing   bool             `json:"missing,omitempty"`
}

// View 购物车视图
type View struct {
	Token     string           `json:"token"`
	Lines     []LineView       `json:"lines"`
	ItemCount int              `json:"item_count"`
	Subtotal  *decimal.Decimal `json:"subtotal"`
	UpdatedAt string           `json:"updated_at"`
}

// UseCase 购物车用例
type UseCase struct {
	container *cart.Container
	bookRepo  book.Repository
}

func NewUseCase(container *cart.Container, bookRepo book.Repository) *UseCase {
	return &UseCase{container: container, bookRepo: bookRepo}
}

func (uc *UseCase) Create(ctx context.Context) (*View, error) {
	c, err := uc.container.Create(ctx)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, c)
}

func (uc *UseCase) Get(ctx context.Context, token string) (*View, error) {
	c, err := uc.container.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, c)
}

// SetQuantity 设置数量,0表示移除;加入的图书必须存在
func (uc *UseCase) SetQuantity(ctx context.Context, token string, bookID uint, quantity int) (*View, error) {
	if quantity > 0 {
		if _, err := uc.bookRepo.FindByID(ctx, bookID); err != nil {
			return nil, err
		}
	}
	c, err := uc.container.SetQuantity(ctx, token, bookID, quantity)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, c)
}

func (uc *UseCase) Remove(ctx context.Context, token string, bookID uint) (*View, error) {
	c, err := uc.container.Remove(ctx, token, bookID)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, c)
}

func (uc *UseCase) Clear(ctx context.Context, token string) error {
	return uc.container.Clear(ctx, token)
}

func (uc *UseCase) view(ctx context.Context, c *cart.Cart) (*View, error) {
	v := &View{
		Token:     c.Token,
		Lines:     make([]LineView, len(c.Lines)),
		ItemCount: c.ItemCount(),
		UpdatedAt: c.UpdatedAt.Format(timeLayout),
	}
	if len(c.Lines) == 0 {
		return v, nil
	}

	ids := make([]uint, len(c.Lines))
	for i, line := range c.Lines {
		ids[i] = line.BookID
	}
	books, err := uc.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i, line := range c.Lines {
		lv := LineView{BookID: line.BookID, Quantity: line.Quantity}
		b, ok := books[line.BookID]
		if !ok {
			lv.Missing = true
			v.Lines[i] = lv
			continue
		}
		lv.Title = b.Title
		lv.Class = b.Class
		lv.Price = b.Price
		lv.Available = b.Stock
		if b.Price != nil {
			amount := b.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			lv.Amount = &amount
			sum := amount
			if v.Subtotal != nil {
				sum = v.Subtotal.Add(amount)
			}
			v.Subtotal = &sum
		}
		v.Lines[i] = lv
	}
	return v, nil
}
