package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/catalog"
	"storefront/internal/infra/events"
	"storefront/internal/infra/payment"
	"storefront/internal/infra/statestore"
	"storefront/internal/middleware"
	"storefront/internal/promo"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testUserID int64 = 1

// =====================
// fakes
// =====================

type emptyStoreCatalog struct{}

func (emptyStoreCatalog) ListProducts(context.Context, int) ([]model.Product, error) {
	return nil, nil
}

func (emptyStoreCatalog) GetProduct(context.Context, int64) (model.Product, error) {
	return model.Product{}, repository.ErrNotFound
}

type activeUsers struct{}

func (activeUsers) Create(context.Context, *model.User) error { return nil }
func (activeUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, IsActive: true}, nil
}
func (activeUsers) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (activeUsers) Update(context.Context, *model.User) error          { return nil }
func (activeUsers) IncrementTokenVersion(context.Context, int64) error { return nil }

// DBが落ちている状態
type downTx struct{}

func (downTx) WithinTx(context.Context, func(r repository.TxRepos) error) error {
	return errors.New("connection refused")
}

type memoryQueue struct {
	tasks []model.ReconciliationTask
}

func (q *memoryQueue) Enqueue(_ context.Context, t model.ReconciliationTask) error {
	q.tasks = append(q.tasks, t)
	return nil
}

func (q *memoryQueue) Dequeue(context.Context) (model.ReconciliationTask, bool, error) {
	if len(q.tasks) == 0 {
		return model.ReconciliationTask{}, false, nil
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true, nil
}

func (q *memoryQueue) Ack(context.Context, model.ReconciliationTask) error { return nil }

func (q *memoryQueue) DeadLetter(context.Context, model.ReconciliationTask) error { return nil }

func (q *memoryQueue) Restore(context.Context) (int64, error) { return 0, nil }

// =====================
// helper
// =====================

type storefront struct {
	products *usecase.ProductUsecase
	cart     *CartHandler
	wishlist *WishlistHandler
	checkout *CheckoutHandler
	queue    *memoryQueue
}

func newStorefront() *storefront {
	store := statestore.NewMemoryStore()
	coupons := promo.DefaultCoupons()
	productUC := usecase.NewProductUsecase(catalog.NewClient(catalog.Config{}, nil, zap.NewNop()), emptyStoreCatalog{}, zap.NewNop())
	queue := &memoryQueue{}
	checkoutUC := usecase.NewCheckoutUsecase(usecase.CheckoutDeps{
		Tx:        downTx{},
		Users:     activeUsers{},
		Store:     store,
		Coupons:   coupons,
		GiftCards: promo.DefaultGiftCards(),
		Processor: payment.NewFakeProcessor(),
		Publisher: events.NopPublisher{},
		Queue:     queue,
		Logger:    zap.NewNop(),
	}, usecase.CheckoutConfig{Currency: "USD", CODMinimumTotal: decimal.RequireFromString("10.00")})

	return &storefront{
		products: productUC,
		cart:     NewCartHandler(usecase.NewCartUsecase(store, coupons, productUC, "USD", zap.NewNop())),
		wishlist: NewWishlistHandler(usecase.NewWishlistUsecase(store, coupons, productUC, zap.NewNop())),
		checkout: NewCheckoutHandler(checkoutUC),
		queue:    queue,
	}
}

func call(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserIDKey, testUserID)
	require.NoError(t, h(c))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// =====================
// writeError
// =====================

func TestWriteError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{"validation", usecase.NewHTTPError(http.StatusBadRequest, "missing required fields: city"), 400, "validation", "missing required fields: city"},
		{"processor", usecase.NewHTTPError(http.StatusPaymentRequired, "Your card was declined."), 402, "processor", "Your card was declined."},
		{"precondition", usecase.NewHTTPError(http.StatusConflict, "insufficient gift card balance"), 409, "precondition", "insufficient gift card balance"},
		{"unknown", errors.New("boom"), 500, "internal", "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, func(c echo.Context) error { return writeError(c, tc.err) }, http.MethodGet, "/", "")

			assert.Equal(t, tc.wantStatus, rec.Code)
			body := decode[ErrorResponse](t, rec)
			assert.Equal(t, tc.wantKind, body.Kind)
			assert.Equal(t, tc.wantMsg, body.Error)
		})
	}
}

func TestHTTPErrorHandler_RouteNotFound(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode[ErrorResponse](t, rec).Error)
}

// =====================
// products
// =====================

func TestProductHandler_ListAndDetail(t *testing.T) {
	h := NewProductHandler(newStorefront().products)

	rec := call(t, h.list, http.MethodGet, "/products?category=grocery&sort=price-low", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[usecase.ProductListOutput](t, rec)
	require.NotEmpty(t, out.Items)
	for _, p := range out.Items {
		assert.Equal(t, "Food", p.Category)
	}
	assert.Equal(t, "Organic Bananas", out.Items[0].Title)

	rec = call(t, h.list, http.MethodGet, "/products?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/products/sample-x", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("sample-x")
	require.NoError(t, h.detail(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "lookup", decode[ErrorResponse](t, rec).Kind)
}

// =====================
// cart
// =====================

func TestCartHandler_AddApplyCouponRemove(t *testing.T) {
	sf := newStorefront()

	rec := call(t, sf.cart.addItem, http.MethodPost, "/cart/items", `{"product_id":"sample-2","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[usecase.CartOutput](t, rec)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "39.98", out.Totals.Subtotal.StringFixed(2))

	rec = call(t, sf.cart.applyCoupon, http.MethodPost, "/cart/coupon", `{"code":"SAVE10"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[usecase.CartOutput](t, rec)
	assert.Equal(t, "SAVE10", out.CouponCode)
	assert.Equal(t, "35.98", out.Totals.Total.StringFixed(2))

	rec = call(t, sf.cart.applyCoupon, http.MethodPost, "/cart/coupon", `{"code":"save10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "lookup", decode[ErrorResponse](t, rec).Kind)

	rec = call(t, sf.cart.removeItem, http.MethodDelete, "/cart/items?variant_id=sample-variant-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[usecase.CartOutput](t, rec).Items)
}

// =====================
// wishlist
// =====================

func TestWishlistHandler_ContainsAndMove(t *testing.T) {
	sf := newStorefront()

	rec := call(t, sf.wishlist.addItem, http.MethodPost, "/wishlist/items", `{"product_id":"sample-3"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, sf.wishlist.contains, http.MethodGet, "/wishlist/contains?product_id=sample-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[ContainsResponse](t, rec).InWishlist)

	rec = call(t, sf.wishlist.moveToCart, http.MethodPost, "/wishlist/move-to-cart", `{"product_id":"sample-3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[usecase.WishlistOutput](t, rec).Items)

	rec = call(t, sf.cart.getCart, http.MethodGet, "/cart", "")
	require.Len(t, decode[usecase.CartOutput](t, rec).Items, 1)
}

// =====================
// checkout
// =====================

func TestCheckoutHandler_MissingFields(t *testing.T) {
	sf := newStorefront()
	call(t, sf.cart.addItem, http.MethodPost, "/cart/items", `{"product_id":"sample-1"}`)

	rec := call(t, sf.checkout.checkout, http.MethodPost, "/checkout", `{"payment_method":"cod","customer":{"full_name":"Ada"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation", body.Kind)
	assert.True(t, strings.HasPrefix(body.Error, "missing required fields: "))
}

func TestCheckoutHandler_CardPaidButUnsavedIsAccepted(t *testing.T) {
	sf := newStorefront()
	call(t, sf.cart.addItem, http.MethodPost, "/cart/items", `{"product_id":"sample-1"}`)

	rec := call(t, sf.checkout.checkout, http.MethodPost, "/checkout", `{
		"payment_method":"card",
		"card_token":"pm_card_visa",
		"customer":{"full_name":"Ada Lovelace","email":"ada@example.com","phone":"555-0100","address":"1 Analytical Way","city":"London","postal_code":"N1 9GU"}
	}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	res := decode[usecase.CheckoutResult](t, rec)
	assert.Equal(t, usecase.CheckoutPendingReconciliation, res.State)
	assert.Equal(t, usecase.RedirectHome, res.Redirect)
	require.Len(t, sf.queue.tasks, 1)
	assert.Equal(t, res.ReconciliationID, sf.queue.tasks[0].ID)

	rec = call(t, sf.cart.getCart, http.MethodGet, "/cart", "")
	assert.Empty(t, decode[usecase.CartOutput](t, rec).Items)
}

func TestCheckoutHandler_CardDeclined(t *testing.T) {
	sf := newStorefront()
	call(t, sf.cart.addItem, http.MethodPost, "/cart/items", `{"product_id":"sample-1"}`)

	rec := call(t, sf.checkout.checkout, http.MethodPost, "/checkout", `{
		"payment_method":"card",
		"card_token":"pm_card_chargeDeclined",
		"customer":{"full_name":"Ada Lovelace","email":"ada@example.com","phone":"555-0100","address":"1 Analytical Way","city":"London","postal_code":"N1 9GU"}
	}`)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "Your card was declined.", decode[ErrorResponse](t, rec).Error)
	assert.Empty(t, sf.queue.tasks)
}
