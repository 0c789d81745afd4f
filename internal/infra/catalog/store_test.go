package catalog

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromRecord(t *testing.T) {
	p, err := FromRecord(model.ProductRecord{
		ID:        4,
		Name:      "Grain Bread",
		Price:     decimal.RequireFromString("5.99"),
		Stock:     3,
		Category:  "Food",
		ImageURLs: []string{"https://cdn.example.com/bread.jpg"},
		IsActive:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "store-4", p.ID)
	assert.True(t, p.IsStoreProduct())
	assert.Equal(t, "USD", p.Price.CurrencyCode)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "store-4-default", p.Variants[0].ID)
	assert.True(t, p.Variants[0].AvailableForSale)
	assert.Equal(t, "Grain Bread", p.Images[0].AltText)
}

func TestFromRecord_OutOfStockIsUnavailable(t *testing.T) {
	p, err := FromRecord(model.ProductRecord{ID: 1, Name: "x", Price: decimal.NewFromInt(1), IsActive: true})
	require.NoError(t, err)
	assert.False(t, p.Variants[0].AvailableForSale)
}

func TestFromRecord_Invalid(t *testing.T) {
	_, err := FromRecord(model.ProductRecord{Name: "no id"})
	assert.Error(t, err)
	_, err = FromRecord(model.ProductRecord{ID: 1})
	assert.Error(t, err)
	_, err = FromRecord(model.ProductRecord{ID: 1, Name: "x", Price: decimal.NewFromInt(-1)})
	assert.Error(t, err)
}

type productRepoMock struct {
	mock.Mock
}

func (m *productRepoMock) ListPublic(ctx context.Context, q repository.ProductListQuery) ([]model.ProductRecord, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.ProductRecord), args.Get(1).(int64), args.Error(2)
}

func (m *productRepoMock) FindByID(ctx context.Context, id int64) (model.ProductRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ProductRecord), args.Error(1)
}

func (m *productRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *productRepoMock) Create(ctx context.Context, p model.ProductRecord) (model.ProductRecord, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.ProductRecord), args.Error(1)
}

func (m *productRepoMock) Update(ctx context.Context, p model.ProductRecord) error {
	return m.Called(ctx, p).Error(0)
}

func (m *productRepoMock) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestStoreCatalog_ListProducts_SkipsInvalid(t *testing.T) {
	repoMock := new(productRepoMock)
	repoMock.On("ListPublic", mock.Anything, repository.ProductListQuery{Page: 1, Limit: 100}).Return([]model.ProductRecord{
		{ID: 1, Name: "Desk Lamp", Price: decimal.RequireFromString("39.00"), Stock: 2, IsActive: true},
		{ID: 2, Name: "", Price: decimal.NewFromInt(5), IsActive: true},
	}, int64(2), nil)

	sc := NewStoreCatalog(repoMock, zap.NewNop())
	got, err := sc.ListProducts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "store-1", got[0].ID)
	repoMock.AssertExpectations(t)
}

func TestStoreCatalog_ListProducts_RepoError(t *testing.T) {
	repoMock := new(productRepoMock)
	repoMock.On("ListPublic", mock.Anything, mock.Anything).Return([]model.ProductRecord{}, int64(0), errors.New("db down"))

	_, err := NewStoreCatalog(repoMock, zap.NewNop()).ListProducts(context.Background(), 10)
	assert.Error(t, err)
}

func TestStoreCatalog_GetProduct_InactiveIsNotFound(t *testing.T) {
	repoMock := new(productRepoMock)
	repoMock.On("FindByID", mock.Anything, int64(7)).Return(model.ProductRecord{ID: 7, Name: "Hidden", IsActive: false}, nil)

	_, err := NewStoreCatalog(repoMock, zap.NewNop()).GetProduct(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
