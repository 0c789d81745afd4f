package ledger

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	"storefront/internal/promo"
	"storefront/internal/repository"
)

// コードが表にない
var ErrCouponNotFound = errors.New("coupon not found")

func CartKey(userID int64) string {
	return fmt.Sprintf("cart-storage:%d", userID)
}

// ユーザー1人分のカート。変更の度にStateStoreへ書き戻す。
type Cart struct {
	store   repository.StateStore
	coupons promo.CouponResolver
	key     string
	state   model.CartState
}

// 保存済みの状態を読み込んで開く。なければ空。
func OpenCart(ctx context.Context, store repository.StateStore, coupons promo.CouponResolver, userID int64) (*Cart, error) {
	c := &Cart{
		store:   store,
		coupons: coupons,
		key:     CartKey(userID),
		state:   model.NewCartState(),
	}
	if _, err := store.Load(ctx, c.key, &c.state); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.state.Items == nil {
		c.state.Items = []model.CartLineItem{}
	}
	return c, nil
}

func (c *Cart) persist(ctx context.Context) error {
	if err := c.store.Save(ctx, c.key, c.state); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// 現在の状態のコピー
func (c *Cart) Snapshot() model.CartState {
	return c.state.Clone()
}

func (c *Cart) AddItem(ctx context.Context, item model.CartLineItem) error {
	c.state.AddItem(item)
	return c.persist(ctx)
}

func (c *Cart) UpdateQuantity(ctx context.Context, variantID string, qty int) error {
	c.state.UpdateQuantity(variantID, qty)
	return c.persist(ctx)
}

func (c *Cart) RemoveItem(ctx context.Context, variantID string) error {
	c.state.RemoveItem(variantID)
	return c.persist(ctx)
}

// 見つからなければErrCouponNotFound、状態は変えない
func (c *Cart) ApplyCoupon(ctx context.Context, code string) error {
	pct, ok, err := c.coupons.ResolveCoupon(ctx, code)
	if err != nil {
		return fmt.Errorf("resolve coupon: %w", err)
	}
	if !ok {
		return ErrCouponNotFound
	}
	c.state.SetCoupon(code, pct)
	return c.persist(ctx)
}

func (c *Cart) RemoveCoupon(ctx context.Context) error {
	c.state.ClearCoupon()
	return c.persist(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.state.Clear()
	return c.persist(ctx)
}

func (c *Cart) Totals(fallbackCurrency string) model.CartTotals {
	return c.state.Totals(fallbackCurrency)
}
