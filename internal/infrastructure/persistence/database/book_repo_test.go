package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookplus/internal/domain/book"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

func seedBook(t *testing.T, repo book.Repository, b *book.Book) *book.Book {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), b))
	require.NotZero(t, b.ID)
	return b
}

func TestBookRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(newTestDB(t))

	b := seedBook(t, repo, &book.Book{
		Title: "English Reader", Class: 3, Subject: "English", Publisher: "OUP",
		Price: decPtr("450.50"), Stock: intPtr(10),
	})

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "English Reader", got.Title)
	require.NotNil(t, got.Price)
	assert.Equal(t, "450.5", got.Price.String())
	assert.Equal(t, 10, *got.Stock)

	// 置空价格与库存
	got.Price = nil
	got.Stock = nil
	got.Title = "English Reader 2"
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Price)
	assert.Nil(t, got.Stock)
	assert.Equal(t, "English Reader 2", got.Title)

	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err = repo.FindByID(ctx, b.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	err = repo.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestBookRepository_FindByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(newTestDB(t))

	a := seedBook(t, repo, &book.Book{Title: "A"})
	b := seedBook(t, repo, &book.Book{Title: "B"})

	found, err := repo.FindByIDs(ctx, []uint{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "B", found[b.ID].Title)
	_, ok := found[999]
	assert.False(t, ok)

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBookRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(newTestDB(t))

	seedBook(t, repo, &book.Book{Title: "Mathematics 5", Class: 5, SerialNumber: 2, Subject: "Math", Publisher: "OUP", Price: decPtr("300")})
	seedBook(t, repo, &book.Book{Title: "Science 5", Class: 5, SerialNumber: 1, Subject: "Science", Publisher: "Paramount", Price: decPtr("200")})
	seedBook(t, repo, &book.Book{Title: "Urdu 4", Class: 4, SerialNumber: 1, Subject: "Urdu", Author: "Mathews", Price: decPtr("100")})
	seedBook(t, repo, &book.Book{Title: "100% Grammar", Class: 6, Subject: "English"})

	t.Run("keyword matches title and author", func(t *testing.T) {
		books, total, err := repo.List(ctx, book.ListParams{Keyword: "math"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, books, 2)
	})

	t.Run("class filter with serial order", func(t *testing.T) {
		class := 5
		books, total, err := repo.List(ctx, book.ListParams{Class: &class, SortBy: "serial_asc"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, books, 2)
		assert.Equal(t, "Science 5", books[0].Title)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		books, _, err := repo.List(ctx, book.ListParams{Title: "100%"})
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "100% Grammar", books[0].Title)
	})

	t.Run("price desc with paging", func(t *testing.T) {
		books, total, err := repo.List(ctx, book.ListParams{Publisher: "", SortBy: "price_desc", Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, books, 2)
		assert.Equal(t, "Mathematics 5", books[0].Title)
	})
}

func TestBookRepository_DecrStock(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(newTestDB(t))

	tracked := seedBook(t, repo, &book.Book{Title: "Go", Stock: intPtr(5)})
	untracked := seedBook(t, repo, &book.Book{Title: "Reader"})

	require.NoError(t, repo.DecrStock(ctx, tracked.ID, 3))
	got, err := repo.FindByID(ctx, tracked.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *got.Stock)

	err = repo.DecrStock(ctx, tracked.ID, 3)
	require.ErrorIs(t, err, book.ErrInsufficientStock)
	appErr := apperrors.GetAppError(err)
	shortage, ok := appErr.Data.(book.StockShortage)
	require.True(t, ok)
	assert.Equal(t, 2, shortage.AvailableStock)
	assert.Equal(t, 3, shortage.Requested)

	got, err = repo.FindByID(ctx, tracked.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *got.Stock, "扣减失败时库存不变")

	assert.NoError(t, repo.DecrStock(ctx, untracked.ID, 100))

	err = repo.DecrStock(ctx, 999, 1)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

// 库存为1时两个并发扣减只有一个成功
func TestBookRepository_DecrStock_Concurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBookRepository(db)
	tx := NewTxManager(db)

	b := seedBook(t, repo, &book.Book{Title: "Last copy", Stock: intPtr(1)})

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = tx.Transaction(ctx, func(ctx context.Context) error {
				return repo.DecrStock(ctx, b.ID, 1)
			})
		}(i)
	}
	wg.Wait()

	success, shortage := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, book.ErrInsufficientStock):
			shortage++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, shortage)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *got.Stock)
}

func TestTxManager_Rollback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBookRepository(db)
	tx := NewTxManager(db)

	b := seedBook(t, repo, &book.Book{Title: "Go", Stock: intPtr(5)})

	boom := errors.New("boom")
	err := tx.Transaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.DecrStock(ctx, b.ID, 4))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *got.Stock)
}
