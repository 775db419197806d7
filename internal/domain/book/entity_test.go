package book

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestBook_Validate(t *testing.T) {
	neg := decimal.NewFromInt(-1)

	cases := []struct {
		name string
		book Book
		ok   bool
	}{
		{"catalog entry without price", Book{Title: "English Reader", Class: 3}, true},
		{"priced with stock", Book{Title: "Go", Price: decPtr("100"), Stock: intPtr(5)}, true},
		{"missing title", Book{Title: "  "}, false},
		{"negative price", Book{Title: "x", Price: &neg}, false},
		{"negative stock", Book{Title: "x", Stock: intPtr(-1)}, false},
		{"negative class", Book{Title: "x", Class: -2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.book.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInvalidParams, apperrors.GetAppError(err).Code)
		})
	}
}

func TestBook_CanFulfil(t *testing.T) {
	untracked := Book{Title: "x"}
	assert.True(t, untracked.CanFulfil(1000))
	assert.Equal(t, -1, untracked.Available())

	tracked := Book{Title: "x", Stock: intPtr(2)}
	assert.True(t, tracked.CanFulfil(2))
	assert.False(t, tracked.CanFulfil(3))
}

func TestBook_Apply(t *testing.T) {
	b := Book{Title: "Old", Subject: "Math", Price: decPtr("10"), Stock: intPtr(3)}

	err := b.Apply(Patch{Title: strPtr(" New "), Stock: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, "New", b.Title)
	assert.Equal(t, "Math", b.Subject)
	assert.Equal(t, 7, *b.Stock)
	assert.True(t, b.Price.Equal(decimal.NewFromInt(10)))

	require.NoError(t, b.Apply(Patch{ClearPrice: true, ClearStock: true}))
	assert.Nil(t, b.Price)
	assert.Nil(t, b.Stock)

	assert.Error(t, b.Apply(Patch{Title: strPtr("")}))
}

func TestNewInsufficientStockError(t *testing.T) {
	b := &Book{ID: 9, Title: "Physics", Stock: intPtr(2)}

	err := NewInsufficientStockError(b, 3)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	detail, ok := err.Data.(StockShortage)
	require.True(t, ok)
	assert.Equal(t, StockShortage{BookID: 9, Title: "Physics", Requested: 3, AvailableStock: 2}, detail)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
