package usecase

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/statestore"
	"storefront/internal/promo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCartUsecase(products ProductLookup) (*CartUsecase, *statestore.MemoryStore) {
	store := statestore.NewMemoryStore()
	return NewCartUsecase(store, promo.DefaultCoupons(), products, "USD", zap.NewNop()), store
}

func TestCartUsecase_AddItem_SnapshotsVariantPrice(t *testing.T) {
	ctx := context.Background()
	p := product("sample-1", "Tee", "10.00", "Clothing")
	products := new(ProductLookupMock)
	products.On("Get", mock.Anything, "sample-1").Return(p, nil)
	u, _ := newCartUsecase(products)

	out, err := u.AddItem(ctx, buyerID, AddCartItemInput{ProductID: "sample-1", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "sample-1-v", out.Items[0].VariantID)
	assert.Equal(t, 2, out.Items[0].Quantity)
	assert.Equal(t, "20.00", out.Totals.Total.StringFixed(2))

	// 同じvariantは数量を足す
	out, err = u.AddItem(ctx, buyerID, AddCartItemInput{ProductID: "sample-1", VariantID: "sample-1-v"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 3, out.Items[0].Quantity)
}

func TestCartUsecase_AddItem_UnavailableVariant(t *testing.T) {
	p := product("sample-2", "Socks", "5.00", "Clothing")
	p.Variants[0].AvailableForSale = false
	products := new(ProductLookupMock)
	products.On("Get", mock.Anything, "sample-2").Return(p, nil)
	u, _ := newCartUsecase(products)

	_, err := u.AddItem(context.Background(), buyerID, AddCartItemInput{ProductID: "sample-2", VariantID: "sample-2-v"})
	assertKind(t, err, KindPrecondition, http.StatusConflict)

	_, err = u.AddItem(context.Background(), buyerID, AddCartItemInput{ProductID: "sample-2"})
	assertKind(t, err, KindPrecondition, http.StatusConflict)
}

func TestCartUsecase_AddItem_UnknownVariant(t *testing.T) {
	products := new(ProductLookupMock)
	products.On("Get", mock.Anything, "sample-1").Return(product("sample-1", "Tee", "10.00", "Clothing"), nil)
	u, _ := newCartUsecase(products)

	_, err := u.AddItem(context.Background(), buyerID, AddCartItemInput{ProductID: "sample-1", VariantID: "other"})
	assertKind(t, err, KindLookup, http.StatusNotFound)
}

func TestCartUsecase_AddItem_NegativeQuantity(t *testing.T) {
	products := new(ProductLookupMock)
	u, _ := newCartUsecase(products)

	_, err := u.AddItem(context.Background(), buyerID, AddCartItemInput{ProductID: "sample-1", Quantity: -1})
	assertKind(t, err, KindValidation, http.StatusBadRequest)
	products.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestCartUsecase_AddItem_ProductNotFound(t *testing.T) {
	products := new(ProductLookupMock)
	products.On("Get", mock.Anything, "missing").Return(model.Product{}, notFoundError("product not found"))
	u, store := newCartUsecase(products)

	_, err := u.AddItem(context.Background(), buyerID, AddCartItemInput{ProductID: "missing"})
	assertKind(t, err, KindLookup, http.StatusNotFound)
	_, saved := store.Raw("cart-storage:1")
	assert.False(t, saved)
}

func TestCartUsecase_Coupon(t *testing.T) {
	ctx := context.Background()
	u, store := newCartUsecase(new(ProductLookupMock))
	require.NoError(t, store.Save(ctx, "cart-storage:1", workedExampleCart()))

	out, err := u.ApplyCoupon(ctx, buyerID, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 10, out.Discount)
	assert.Equal(t, "22.50", out.Totals.Total.StringFixed(2))

	// 大文字小文字は区別する
	_, err = u.ApplyCoupon(ctx, buyerID, "save10")
	assertKind(t, err, KindLookup, http.StatusBadRequest)

	out, err = u.Get(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", out.CouponCode)

	out, err = u.RemoveCoupon(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Discount)
	assert.Equal(t, "25.00", out.Totals.Total.StringFixed(2))
}

func TestCartUsecase_UpdateQuantity_ZeroRemoves(t *testing.T) {
	ctx := context.Background()
	u, store := newCartUsecase(new(ProductLookupMock))
	require.NoError(t, store.Save(ctx, "cart-storage:1", workedExampleCart()))

	out, err := u.UpdateQuantity(ctx, buyerID, "sample-1-v", 0)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "sample-2-v", out.Items[0].VariantID)

	out, err = u.RemoveItem(ctx, buyerID, "sample-2-v")
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	_, err = u.RemoveItem(ctx, buyerID, " ")
	assertKind(t, err, KindValidation, http.StatusBadRequest)
}

func TestCartUsecase_Clear(t *testing.T) {
	ctx := context.Background()
	u, store := newCartUsecase(new(ProductLookupMock))
	require.NoError(t, store.Save(ctx, "cart-storage:1", workedExampleCart()))

	out, err := u.Clear(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Empty(t, out.CouponCode)
	assert.True(t, out.Totals.Total.IsZero())
}

func TestCartUsecase_Unauthorized(t *testing.T) {
	u, _ := newCartUsecase(new(ProductLookupMock))
	_, err := u.Get(context.Background(), 0)
	assertKind(t, err, KindUnauthorized, http.StatusUnauthorized)
}
