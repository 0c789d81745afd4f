package ledger

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

func WishlistKey(userID int64) string {
	return fmt.Sprintf("wishlist-storage:%d", userID)
}

// 商品IDをキーにした集合。カートとは独立して保存する。
type Wishlist struct {
	store repository.StateStore
	key   string
	state model.WishlistState
}

func OpenWishlist(ctx context.Context, store repository.StateStore, userID int64) (*Wishlist, error) {
	w := &Wishlist{
		store: store,
		key:   WishlistKey(userID),
		state: model.NewWishlistState(),
	}
	if _, err := store.Load(ctx, w.key, &w.state); err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	if w.state.Items == nil {
		w.state.Items = []model.Product{}
	}
	return w, nil
}

func (w *Wishlist) persist(ctx context.Context) error {
	if err := w.store.Save(ctx, w.key, w.state); err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	return nil
}

func (w *Wishlist) Items() []model.Product {
	out := make([]model.Product, len(w.state.Items))
	copy(out, w.state.Items)
	return out
}

func (w *Wishlist) AddItem(ctx context.Context, p model.Product) error {
	if w.state.Contains(p.ID) {
		return nil
	}
	w.state.Add(p)
	return w.persist(ctx)
}

func (w *Wishlist) RemoveItem(ctx context.Context, productID string) error {
	w.state.Remove(productID)
	return w.persist(ctx)
}

func (w *Wishlist) IsInWishlist(productID string) bool {
	return w.state.Contains(productID)
}

func (w *Wishlist) Find(productID string) (model.Product, bool) {
	return w.state.Find(productID)
}

func (w *Wishlist) Clear(ctx context.Context) error {
	w.state.Clear()
	return w.persist(ctx)
}
