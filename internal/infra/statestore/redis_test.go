package statestore

import (
	"context"
	"testing"

	"storefront/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func sampleCart() model.CartState {
	s := model.NewCartState()
	s.AddItem(model.CartLineItem{
		Product:      model.Product{ID: "store-3", Title: "Cotton T-Shirt", Source: model.ProductSourceStore},
		VariantID:    "store-3-default",
		VariantTitle: "Default",
		Price:        model.NewMoney(decimal.RequireFromString("19.99"), "USD"),
		Quantity:     2,
		SelectedOptions: []model.SelectedOption{
			{Name: "Size", Value: "M"},
		},
	})
	s.SetCoupon("SAVE10", 10)
	return s
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	in := sampleCart()
	require.NoError(t, store.Save(ctx, "cart-storage:1", in))
	assert.True(t, mr.Exists("cart-storage:1"))

	var out model.CartState
	found, err := store.Load(ctx, "cart-storage:1", &out)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, "SAVE10", out.CouponCode)
	assert.Equal(t, 10, out.Discount)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "store-3-default", out.Items[0].VariantID)
	assert.Equal(t, "19.99", out.Items[0].Price.Amount.String())
	assert.Equal(t, in.Total().String(), out.Total().String())

	raw, err := mr.Get("cart-storage:1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"couponCode":"SAVE10"`)
	assert.Contains(t, raw, `"discount":10`)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, _ := setupTestRedis(t)

	var out model.CartState
	found, err := store.Load(context.Background(), "cart-storage:404", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "wishlist-storage:1", model.NewWishlistState()))
	require.NoError(t, store.Delete(ctx, "wishlist-storage:1"))
	assert.False(t, mr.Exists("wishlist-storage:1"))
}

func TestRedisStore_LoadCorrupted(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart-storage:1", "{not json"))

	var out model.CartState
	_, err := store.Load(context.Background(), "cart-storage:1", &out)
	assert.Error(t, err)
}

func TestRedisStore_ServerDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client)

	err := store.Save(context.Background(), "cart-storage:1", sampleCart())
	assert.Error(t, err)
}
