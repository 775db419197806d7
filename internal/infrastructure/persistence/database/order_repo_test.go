package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookplus/internal/domain/order"
)

func newOrder(t *testing.T, items ...order.Item) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.GenerateOrderNo(),
		order.Customer{Name: "Asha", Email: "asha@example.com", Institution: "City School"},
		order.Shipping{Address: "1 Mall Rd", City: "Lahore"},
		items, "2024-2025")
	require.NoError(t, err)
	return o
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	o := newOrder(t,
		order.Item{BookID: 1, Title: "Go", Class: 5, Section: "A", Quantity: 3, Price: decPtr("100")},
		order.Item{BookID: 2, Title: "Reader", Quantity: 1},
	)
	require.NoError(t, repo.Create(ctx, o))
	require.NotZero(t, o.ID)
	require.NotZero(t, o.Items[0].ID)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNo, got.OrderNo)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, "City School", got.Customer.Institution)
	assert.Equal(t, "Lahore", got.Shipping.City)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Go", got.Items[0].Title)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Nil(t, got.Items[1].Price)
	require.NotNil(t, got.Total)
	assert.Equal(t, "300", got.Total.String())

	again, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, got, again, "两次读取结果一致")

	byNo, err := repo.FindByOrderNo(ctx, o.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNo.ID)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderRepository_DuplicateOrderNo(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	a := newOrder(t, order.Item{BookID: 1, Title: "Go", Quantity: 1})
	require.NoError(t, repo.Create(ctx, a))

	b := newOrder(t, order.Item{BookID: 1, Title: "Go", Quantity: 1})
	b.OrderNo = a.OrderNo
	assert.ErrorIs(t, repo.Create(ctx, b), order.ErrDuplicateOrderNo)
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	var ids []uint
	for i := 0; i < 3; i++ {
		o := newOrder(t, order.Item{BookID: 1, Title: "Go", Quantity: 1})
		o.OrderNo = o.OrderNo + string(rune('a'+i))
		o.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, o))
		ids = append(ids, o.ID)
	}
	require.NoError(t, repo.UpdateStatus(ctx, ids[0], order.StatusShipped))

	orders, total, err := repo.List(ctx, order.ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[2].ID)
	assert.Len(t, orders[0].Items, 1)

	shipped, total, err := repo.List(ctx, order.ListParams{Status: order.StatusShipped})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, shipped, 1)
	assert.Equal(t, ids[0], shipped[0].ID)

	page, _, err := repo.List(ctx, order.ListParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	o := newOrder(t, order.Item{BookID: 1, Title: "Go", Quantity: 1})
	require.NoError(t, repo.Create(ctx, o))

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, order.StatusDelivered))
	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, order.StatusPending), order.ErrOrderNotFound)
}

func TestOrderRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	o := newOrder(t,
		order.Item{BookID: 1, Title: "Go", Quantity: 3, Price: decPtr("100")},
		order.Item{BookID: 2, Title: "Rust", Quantity: 1, Price: decPtr("50")},
	)
	require.NoError(t, repo.Create(ctx, o))

	year := "2025-2026"
	_, err := o.ApplyEdit(order.Edit{
		Customer:     &order.Customer{Name: "Bilal", Email: "bilal@example.com"},
		Quantities:   []order.ItemQuantity{{ItemID: o.Items[1].ID, Quantity: 4}},
		AcademicYear: &year,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bilal", got.Customer.Name)
	assert.Equal(t, "", got.Customer.Institution)
	assert.Equal(t, 4, got.Items[1].Quantity)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, "2025-2026", got.AcademicYear)
	assert.Equal(t, "350", got.Total.String(), "编辑不重算总额")
	assert.True(t, got.TotalStale())

	missing := &order.Order{ID: 999, Customer: order.Customer{Name: "x", Email: "x@y.z"}}
	assert.ErrorIs(t, repo.Update(ctx, missing), order.ErrOrderNotFound)
}

func TestOrderRepository_MarkNotified(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	o := newOrder(t, order.Item{BookID: 1, Title: "Go", Quantity: 1})
	require.NoError(t, repo.Create(ctx, o))

	at := time.Now().Truncate(time.Second)
	require.NoError(t, repo.MarkNotified(ctx, o.ID, at))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NotifiedAt)
	assert.True(t, at.Equal(*got.NotifiedAt))

	assert.ErrorIs(t, repo.MarkNotified(ctx, 999, at), order.ErrOrderNotFound)
}

func TestOrderRepository_Summarize(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	create := func(status order.Status, items ...order.Item) {
		o := newOrder(t, items...)
		o.Status = status
		require.NoError(t, repo.Create(ctx, o))
	}
	create(order.StatusPending,
		order.Item{BookID: 1, Title: "Math 5", Class: 5, Publisher: "OUP", Quantity: 10},
		order.Item{BookID: 2, Title: "Science 5", Class: 5, Publisher: "Paramount", Quantity: 4},
	)
	create(order.StatusShipped,
		order.Item{BookID: 1, Title: "Math 5", Class: 5, Publisher: "OUP", Quantity: 5},
	)
	create(order.StatusPending,
		order.Item{BookID: 3, Title: "Urdu 4", Class: 4, Publisher: "OUP", Quantity: 20},
	)

	t.Run("quantity desc", func(t *testing.T) {
		rows, err := repo.Summarize(ctx, order.SummaryFilter{SortBy: "quantity", Desc: true})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, uint(3), rows[0].BookID)
		assert.Equal(t, 20, rows[0].Quantity)
		assert.Equal(t, uint(1), rows[1].BookID)
		assert.Equal(t, 15, rows[1].Quantity)
		assert.Equal(t, 2, rows[1].OrderCount)
		assert.Equal(t, "Math 5", rows[1].Title)
	})

	t.Run("filters", func(t *testing.T) {
		class := 5
		rows, err := repo.Summarize(ctx, order.SummaryFilter{Class: &class, Status: order.StatusPending, Publisher: "OUP"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 10, rows[0].Quantity)
		assert.Equal(t, 1, rows[0].OrderCount)
	})

	t.Run("date range", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		rows, err := repo.Summarize(ctx, order.SummaryFilter{From: &future})
		require.NoError(t, err)
		assert.Empty(t, rows)

		past := time.Now().Add(-time.Hour)
		rows, err = repo.Summarize(ctx, order.SummaryFilter{From: &past, To: &future, SortBy: "orders", Desc: true})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, uint(1), rows[0].BookID)
	})
}
