package order

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func customer() Customer {
	return Customer{Name: "Asha", Email: "asha@example.com", Phone: "0300"}
}

func TestNewOrder(t *testing.T) {
	items := []Item{
		{BookID: 1, Title: "Go", Quantity: 3, Price: price("100")},
		{BookID: 2, Title: "Urdu Reader", Quantity: 2},
	}

	o, err := NewOrder("ORD1", customer(), Shipping{City: "Lahore"}, items, "2024-2025")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	require.NotNil(t, o.Total)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 5, o.ItemCount())
	assert.False(t, o.CreatedAt.IsZero())
}

func TestNewOrder_Invalid(t *testing.T) {
	ok := []Item{{BookID: 1, Title: "Go", Quantity: 1}}

	_, err := NewOrder("ORD1", customer(), Shipping{}, nil, "")
	assert.ErrorIs(t, err, ErrEmptyItems)

	_, err = NewOrder("ORD1", customer(), Shipping{}, []Item{{BookID: 1, Quantity: 0}}, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder("ORD1", Customer{Name: " ", Email: "a@b.c"}, Shipping{}, ok, "")
	assert.ErrorIs(t, err, ErrCustomerRequired)
}

func TestCalculateTotal(t *testing.T) {
	assert.Nil(t, CalculateTotal([]Item{{Quantity: 2}}), "全部未定价时总额为nil")

	total := CalculateTotal([]Item{
		{Quantity: 2, Price: price("12.50")},
		{Quantity: 1},
		{Quantity: 3, Price: price("0.10")},
	})
	require.NotNil(t, total)
	assert.Equal(t, "25.3", total.String())
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusDelivered, StatusDelivered, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrder_SetStatus(t *testing.T) {
	t.Run("legal transition", func(t *testing.T) {
		o := &Order{Status: StatusPending}
		flagged, err := o.SetStatus(StatusProcessing, true)
		require.NoError(t, err)
		assert.False(t, flagged)
		assert.Equal(t, StatusProcessing, o.Status)
	})

	t.Run("illegal transition is applied and flagged", func(t *testing.T) {
		o := &Order{Status: StatusDelivered}
		flagged, err := o.SetStatus(StatusPending, false)
		require.NoError(t, err)
		assert.True(t, flagged)
		assert.Equal(t, StatusPending, o.Status)
	})

	t.Run("illegal transition rejected in strict mode", func(t *testing.T) {
		o := &Order{Status: StatusDelivered}
		_, err := o.SetStatus(StatusPending, true)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.Equal(t, StatusDelivered, o.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		o := &Order{Status: StatusPending}
		_, err := o.SetStatus(Status("lost"), false)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestOrder_ApplyEdit(t *testing.T) {
	newOrder := func() *Order {
		o, err := NewOrder("ORD1", customer(), Shipping{}, []Item{
			{BookID: 1, Title: "Go", Quantity: 3, Price: price("100")},
			{BookID: 2, Title: "Rust", Quantity: 1, Price: price("50")},
		}, "2024-2025")
		require.NoError(t, err)
		o.Items[0].ID = 11
		o.Items[1].ID = 12
		return o
	}

	t.Run("quantity change keeps stored total", func(t *testing.T) {
		o := newOrder()
		year := "2025-2026"
		changed, err := o.ApplyEdit(Edit{
			Quantities:   []ItemQuantity{{ItemID: 11, Quantity: 1}},
			AcademicYear: &year,
		})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 1, o.Items[0].Quantity)
		assert.True(t, o.Total.Equal(decimal.NewFromInt(350)))
		assert.True(t, o.TotalStale())
		assert.Equal(t, "2025-2026", o.AcademicYear)
	})

	t.Run("customer overwrite", func(t *testing.T) {
		o := newOrder()
		c := Customer{Name: "Bilal", Email: "bilal@example.com", Institution: "City School"}
		changed, err := o.ApplyEdit(Edit{Customer: &c, Shipping: &Shipping{Address: "1 Mall Rd"}})
		require.NoError(t, err)
		assert.False(t, changed)
		assert.False(t, o.TotalStale())
		assert.Equal(t, "City School", o.Customer.Institution)
		assert.Equal(t, "1 Mall Rd", o.Shipping.Address)
	})

	t.Run("invalid edits leave order untouched", func(t *testing.T) {
		o := newOrder()
		_, err := o.ApplyEdit(Edit{Quantities: []ItemQuantity{{ItemID: 11, Quantity: 0}}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = o.ApplyEdit(Edit{Quantities: []ItemQuantity{{ItemID: 99, Quantity: 2}}})
		assert.ErrorIs(t, err, ErrItemNotFound)

		_, err = o.ApplyEdit(Edit{Customer: &Customer{Name: "x"}})
		assert.ErrorIs(t, err, ErrCustomerRequired)

		assert.Equal(t, 3, o.Items[0].Quantity)
		assert.Equal(t, "Asha", o.Customer.Name)
	})
}

func TestGenerateOrderNo(t *testing.T) {
	no := GenerateOrderNo()
	assert.True(t, strings.HasPrefix(no, "ORD"))
	assert.Len(t, no, 3+14+6)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		no := GenerateOrderNo()
		_, dup := seen[no]
		require.False(t, dup, "重复订单号 %s", no)
		seen[no] = struct{}{}
	}
}
