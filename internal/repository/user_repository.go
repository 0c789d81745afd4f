package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 見つからない場合はErrNotFound
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１（全端末ログアウト）
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
