package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookplus/internal/application/admin"
	appbook "github.com/xiebiao/bookplus/internal/application/book"
	appcart "github.com/xiebiao/bookplus/internal/application/cart"
	apporder "github.com/xiebiao/bookplus/internal/application/order"
	"github.com/xiebiao/bookplus/internal/domain/book"
	"github.com/xiebiao/bookplus/internal/domain/cart"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/internal/infrastructure/invoice"
	"github.com/xiebiao/bookplus/internal/infrastructure/persistence/database"
	"github.com/xiebiao/bookplus/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookplus/internal/interface/http/handler"
	"github.com/xiebiao/bookplus/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/jwt"
	"github.com/xiebiao/bookplus/pkg/logger"
)

const passcode = "2468"

type recordingDispatcher struct {
	mu     sync.Mutex
	events []order.PlacedEvent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event order.PlacedEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine     *gin.Engine
	dispatcher *recordingDispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "api.db")},
		Admin:    config.AdminConfig{Passcode: passcode},
		Store:    config.StoreConfig{Name: "BookPlus", Currency: "Rs."},
		Checkout: config.CheckoutConfig{
			StockPolicy:         config.StockPolicyStrict,
			DefaultAcademicYear: "2024-2025",
			MaxLineQuantity:     100,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	log := logger.Discard()

	db, err := database.NewDB(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	bookRepo := database.NewBookRepository(db)
	orderRepo := database.NewOrderRepository(db)
	txManager := database.NewTxManager(db)
	bookService := book.NewService(bookRepo, cfg.Checkout.DefaultAcademicYear)
	dispatcher := &recordingDispatcher{}
	jwtManager := jwt.NewManager("router-test", time.Hour)
	blacklist := memory.NewTokenBlacklist()

	bookHandler := handler.NewBookHandler(
		appbook.NewListBooksUseCase(bookService),
		appbook.NewGetBookUseCase(bookService),
		appbook.NewCreateBookUseCase(bookService, log),
		appbook.NewUpdateBookUseCase(bookService, log),
		appbook.NewDeleteBookUseCase(bookService, log),
		appbook.NewValidateCartUseCase(bookRepo),
	)
	cartHandler := handler.NewCartHandler(appcart.NewUseCase(cart.NewContainer(memory.NewCartStorage(time.Hour)), bookRepo))
	orderHandler := handler.NewOrderHandler(
		apporder.NewPlaceOrderUseCase(orderRepo, bookRepo, txManager, dispatcher, cfg, log),
		apporder.NewGetOrderUseCase(orderRepo),
		apporder.NewTrackOrderUseCase(orderRepo),
		apporder.NewListOrdersUseCase(orderRepo),
		apporder.NewUpdateOrderStatusUseCase(orderRepo, cfg, log),
		apporder.NewEditOrderUseCase(orderRepo, log),
		apporder.NewDownloadInvoiceUseCase(orderRepo, invoice.NewPDFRenderer(cfg)),
		apporder.NewResendNotificationUseCase(orderRepo, dispatcher),
		apporder.NewOrderSummaryUseCase(orderRepo),
	)
	adminHandler := handler.NewAdminHandler(
		admin.NewLoginUseCase(cfg, jwtManager, log),
		admin.NewLogoutUseCase(blacklist, log),
	)

	engine := New(cfg, log, bookHandler, cartHandler, orderHandler, adminHandler,
		middleware.NewAuthMiddleware(jwtManager, blacklist))
	return &testServer{engine: engine, dispatcher: dispatcher}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"passcode": passcode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp admin.LoginResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (s *testServer) createBook(t *testing.T, token string, body map[string]interface{}) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/admin/books", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b appbook.BookDTO
	decode(t, w, &b)
	return b.ID
}

func checkoutBody(items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"customer": map[string]string{"name": "Asha Malik", "email": "asha@example.com"},
		"shipping": map[string]string{"address": "12 Mall Road", "city": "Lahore"},
		"items":    items,
	}
}

func line(bookID uint, quantity int) map[string]interface{} {
	return map[string]interface{}{"book_id": bookID, "quantity": quantity}
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), "pong")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/ping", "", nil)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAdminGate(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"passcode": "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidPasscode, decode(t, w, nil).Code)

	w = s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, decode(t, w, nil).Code)

	token := s.login(t)
	w = s.do(t, http.MethodGet, "/api/v1/admin/orders", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/admin/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/api/v1/admin/books", token, map[string]interface{}{"class": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code, "缺少书名")

	id := s.createBook(t, token, map[string]interface{}{
		"title": "English Reader 4", "class": 4, "subject": "English", "price": "250.00", "stock": 10,
	})

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got appbook.BookDTO
	decode(t, w, &got)
	assert.Equal(t, "English Reader 4", got.Title)
	assert.Equal(t, 10, *got.Stock)

	w = s.do(t, http.MethodGet, "/api/v1/books?keyword=reader&class=4", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list appbook.ListBooksResponse
	decode(t, w, &list)
	assert.EqualValues(t, 1, list.Total)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/books/%d", id), token, map[string]interface{}{"stock": 3})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, 3, *got.Stock)

	w = s.do(t, http.MethodPut, "/api/v1/admin/books/999", token, map[string]interface{}{"stock": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/books/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/books/%d", id), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/books/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeBookNotFound, decode(t, w, nil).Code)
}

func TestCheckoutAndOrderAdmin(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	id := s.createBook(t, token, map[string]interface{}{
		"title": "Mathematics 6", "class": 6, "section": "B", "publisher": "OUP", "price": "100", "stock": 5,
	})

	// 库存不足
	w := s.do(t, http.MethodPost, "/api/v1/checkout", "", checkoutBody(line(id, 6)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var shortage book.StockShortage
	env := decode(t, w, &shortage)
	assert.Equal(t, apperrors.ErrCodeInsufficientStock, env.Code)
	assert.Equal(t, 5, shortage.AvailableStock)

	// 图书不存在
	w = s.do(t, http.MethodPost, "/api/v1/checkout", "", checkoutBody(line(999, 1)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/checkout", "", checkoutBody(line(id, 3)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed apporder.PlaceOrderResponse
	decode(t, w, &placed)
	assert.Equal(t, "pending", placed.Status)
	assert.Equal(t, "300", placed.Total.String())
	assert.Equal(t, 1, s.dispatcher.count())

	// 按数字ID查询订单只对管理员开放
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", placed.OrderID), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeBindError, decode(t, w, nil).Code)
	assert.NotContains(t, w.Body.String(), "asha@example.com")
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/orders/%d", placed.OrderID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 客户凭订单号与下单邮箱查询
	w = s.do(t, http.MethodGet, "/api/v1/orders/"+placed.OrderNo+"?email=someone@example.com", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "asha@example.com")
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d?email=asha@example.com", placed.OrderID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/orders/"+placed.OrderNo+"?email=ASHA@example.com", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tracked apporder.OrderDTO
	decode(t, w, &tracked)
	assert.Equal(t, placed.OrderID, tracked.ID)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/orders/%d", placed.OrderID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail apporder.OrderDTO
	decode(t, w, &detail)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Mathematics 6", detail.Items[0].Title)
	assert.Equal(t, "asha@example.com", detail.Customer.Email)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", id), "", nil)
	var b appbook.BookDTO
	decode(t, w, &b)
	assert.Equal(t, 2, *b.Stock)

	w = s.do(t, http.MethodGet, "/api/v1/admin/orders?status=pending", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), placed.OrderNo)

	w = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/orders/%d/status", placed.OrderID), token,
		map[string]string{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"previous_status":"pending"`)

	w = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/orders/%d/status", placed.OrderID), token,
		map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/orders/%d", placed.OrderID), token,
		map[string]interface{}{
			"items":    []map[string]interface{}{{"id": detail.Items[0].ID, "quantity": 4}},
			"shipping": map[string]string{"address": "7 Canal View", "city": "Lahore"},
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var edited apporder.EditOrderResponse
	decode(t, w, &edited)
	assert.True(t, edited.TotalStale)
	assert.Equal(t, 4, edited.Order.Items[0].Quantity)
	assert.Equal(t, "7 Canal View", edited.Order.Shipping.Address)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/orders/%d/invoice", placed.OrderID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf(`attachment; filename="order-%d.pdf"`, placed.OrderID), w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = s.do(t, http.MethodGet, "/api/v1/admin/orders/999/invoice", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%d/notify", placed.OrderID), token, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 2, s.dispatcher.count())
}

func TestOrderSummaryEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	a := s.createBook(t, token, map[string]interface{}{"title": "Urdu 2", "class": 2, "price": "80"})
	b := s.createBook(t, token, map[string]interface{}{"title": "Science 2", "class": 2, "price": "120"})

	for _, items := range [][]map[string]interface{}{
		{line(a, 2), line(b, 1)},
		{line(a, 3)},
	} {
		w := s.do(t, http.MethodPost, "/api/v1/checkout", "", checkoutBody(items...))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/api/v1/admin/orders/summary?sort_by=quantity&order=desc", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary apporder.SummaryResponse
	decode(t, w, &summary)
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, "Urdu 2", summary.Rows[0].Title)
	assert.Equal(t, 5, summary.Rows[0].Quantity)
	assert.Equal(t, 2, summary.Rows[0].OrderCount)
	assert.Equal(t, 6, summary.TotalQuantity)

	w = s.do(t, http.MethodGet, "/api/v1/admin/orders/summary?from=2024-13-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/orders/summary/export?sort_by=title&order=asc", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Book ID,Title"))
	assert.Contains(t, lines[1], "Science 2")
}

func TestCartEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	id := s.createBook(t, token, map[string]interface{}{"title": "Art 1", "price": "60", "stock": 2})

	w := s.do(t, http.MethodPost, "/api/v1/carts", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var view appcart.View
	decode(t, w, &view)
	require.NotEmpty(t, view.Token)
	base := "/api/v1/carts/" + view.Token

	w = s.do(t, http.MethodPut, base+"/items", "", map[string]interface{}{"book_id": id, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "120", view.Subtotal.String())

	w = s.do(t, http.MethodPut, base+"/items", "", map[string]interface{}{"book_id": 999, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/cart/validate", "", map[string]interface{}{
		"items": []map[string]interface{}{
			{"book_id": id, "quantity": 3, "price": "60"},
			{"book_id": 999, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var results []appbook.CartLineResult
	decode(t, w, &results)
	require.Len(t, results, 2)
	assert.Equal(t, appbook.CartErrInsufficientStock, results[0].Error)
	assert.True(t, results[1].Remove)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("%s/items/%d", base, id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Empty(t, view.Lines)

	w = s.do(t, http.MethodDelete, base, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeCartNotFound, decode(t, w, nil).Code)
}
