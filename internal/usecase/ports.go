package usecase

import (
	"context"

	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
)

// 外部カタログ。失敗時は見本商品を返すのでエラーはない。
type CatalogSource interface {
	FetchProducts(ctx context.Context, limit int) []model.Product
}

// 自前DBの商品
type StoreCatalog interface {
	ListProducts(ctx context.Context, limit int) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (model.Product, error)
}

// 商品IDから商品を引く（カート・ウィッシュリスト用）
type ProductLookup interface {
	Get(ctx context.Context, productID string) (model.Product, error)
}

type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev events.OrderPlaced) error
}

// 決済後に保存できなかった注文のキュー
type ReconcileQueue interface {
	Enqueue(ctx context.Context, task model.ReconciliationTask) error
	Dequeue(ctx context.Context) (model.ReconciliationTask, bool, error)
	Ack(ctx context.Context, task model.ReconciliationTask) error
	DeadLetter(ctx context.Context, task model.ReconciliationTask) error
	Restore(ctx context.Context) (int64, error)
}
