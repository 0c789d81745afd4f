package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 管理画面の操作履歴。ResourceTypeが空なら全種類、ResourceIDが0なら全件。
type AuditHistoryQuery struct {
	ResourceType model.AuditResourceType
	ResourceID   int64
	Page         int
	Limit        int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	//新しい順＋総件数
	History(ctx context.Context, q AuditHistoryQuery) ([]model.AuditLog, int64, error)
}
