package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 購入者情報の保存・取得
type ProfileRepository interface {
	//user_idが同じなら上書き（重複させない）
	Upsert(ctx context.Context, profile model.Profile) error
	FindByUserID(ctx context.Context, userID int64) (model.Profile, error)
}
