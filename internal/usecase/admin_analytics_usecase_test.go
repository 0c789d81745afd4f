package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAnalyticsUsecase_Get(t *testing.T) {
	orders := new(OrderRepoMock)
	products := new(ProductRepoMock)
	orders.On("ListForAnalytics", context.Background()).Return([]model.Order{
		{ID: 1, Status: model.OrderStatusCompleted, TotalAmount: decimal.RequireFromString("100.00"), CreatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Status: model.OrderStatusCompleted, TotalAmount: decimal.RequireFromString("50.50"), CreatedAt: time.Date(2025, 4, 30, 23, 0, 0, 0, time.UTC)},
		{ID: 3, Status: model.OrderStatusPending, TotalAmount: decimal.RequireFromString("999.00"), CreatedAt: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		// 12か月より前
		{ID: 4, Status: model.OrderStatusCompleted, TotalAmount: decimal.RequireFromString("10.00"), CreatedAt: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
	}, nil)
	products.On("Count", context.Background()).Return(int64(6), nil)

	uc := NewAdminAnalyticsUsecase(orders, products)
	uc.now = func() time.Time { return fixedNow }

	out, err := uc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "160.50", out.TotalRevenue.StringFixed(2))
	assert.Equal(t, "48.15", out.TotalProfit.StringFixed(2))
	assert.Equal(t, 3, out.CompletedOrders)
	assert.Equal(t, 4, out.TotalOrders)
	assert.Equal(t, int64(6), out.TotalProducts)

	require.Len(t, out.Monthly, 12)
	assert.Equal(t, "2025-04", out.Monthly[0].Key)
	assert.Equal(t, "Apr 2025", out.Monthly[0].Month)
	assert.Equal(t, "50.50", out.Monthly[0].Revenue.StringFixed(2))
	assert.Equal(t, "15", out.Monthly[0].Profit.String())
	last := out.Monthly[11]
	assert.Equal(t, "2026-03", last.Key)
	assert.Equal(t, 1, last.Orders)
	assert.Equal(t, "30", last.Profit.String())
}

func TestAdminAnalyticsUsecase_Get_DBError(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("ListForAnalytics", context.Background()).Return(nil, errors.New("boom"))

	uc := NewAdminAnalyticsUsecase(orders, new(ProductRepoMock))
	_, err := uc.Get(context.Background())

	assertErrContains(t, err, "db error")
}
