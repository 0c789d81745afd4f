package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderItemRepository interface {
	//空なら何もしない
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
