package repository

import "context"

// キー単位でJSON状態を保存する約束（カート・ウィッシュリスト・チェックアウトセッション）
type StateStore interface {
	//見つからなければ(false, nil)
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}
