package repository

import (
	"context"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

// DBの商品（管理画面で登録したもの）の保存・取得
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.ProductRecord, int64, error)
	FindByID(ctx context.Context, id int64) (model.ProductRecord, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, p model.ProductRecord) (model.ProductRecord, error)
	Update(ctx context.Context, p model.ProductRecord) error
	SoftDelete(ctx context.Context, id int64) error
}

// 在庫の更新と履歴保存をまとめた約束
type InventoryRepository interface {
	SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error
}
