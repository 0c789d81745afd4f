package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/ledger"
	"storefront/internal/promo"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type CartUsecase struct {
	store    repo.StateStore
	coupons  promo.CouponResolver
	products ProductLookup
	currency string
	logger   *zap.Logger
}

func NewCartUsecase(store repo.StateStore, coupons promo.CouponResolver, products ProductLookup, currency string, logger *zap.Logger) *CartUsecase {
	if currency == "" {
		currency = model.DefaultCurrency
	}
	return &CartUsecase{
		store:    store,
		coupons:  coupons,
		products: products,
		currency: currency,
		logger:   logger,
	}
}

// カートの中身と集計
type CartOutput struct {
	Items      []model.CartLineItem `json:"items"`
	CouponCode string               `json:"couponCode"`
	Discount   int                  `json:"discount"`
	Totals     model.CartTotals     `json:"totals"`
}

type AddCartItemInput struct {
	ProductID string
	VariantID string
	Quantity  int
}

func (u *CartUsecase) open(ctx context.Context, userID int64) (*ledger.Cart, error) {
	if userID <= 0 {
		return nil, unauthorizedError()
	}
	c, err := ledger.OpenCart(ctx, u.store, u.coupons, userID)
	if err != nil {
		u.logger.Error("open cart", zap.Int64("user_id", userID), zap.Error(err))
		return nil, internalError(err)
	}
	return c, nil
}

func (u *CartUsecase) output(c *ledger.Cart) CartOutput {
	s := c.Snapshot()
	return CartOutput{
		Items:      s.Items,
		CouponCode: s.CouponCode,
		Discount:   s.Discount,
		Totals:     c.Totals(u.currency),
	}
}

func (u *CartUsecase) saveFailed(userID int64, err error) error {
	u.logger.Error("save cart", zap.Int64("user_id", userID), zap.Error(err))
	return internalError(err)
}

func (u *CartUsecase) Get(ctx context.Context, userID int64) (CartOutput, error) {
	c, err := u.open(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	return u.output(c), nil
}

// 価格は追加した時点の値で固定する
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartItemInput) (CartOutput, error) {
	if in.Quantity < 0 {
		return CartOutput{}, validationError("quantity must be >= 1")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	c, err := u.open(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}

	p, err := u.products.Get(ctx, in.ProductID)
	if err != nil {
		return CartOutput{}, err
	}
	item, err := lineItemFor(p, strings.TrimSpace(in.VariantID), in.Quantity)
	if err != nil {
		return CartOutput{}, err
	}

	if err := c.AddItem(ctx, item); err != nil {
		return CartOutput{}, u.saveFailed(userID, err)
	}
	return u.output(c), nil
}

// 0以下は削除
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, variantID string, qty int) (CartOutput, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return CartOutput{}, validationError("variant_id required")
	}
	c, err := u.open(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	if err := c.UpdateQuantity(ctx, variantID, qty); err != nil {
		return CartOutput{}, u.saveFailed(userID, err)
	}
	return u.output(c), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, variantID string) (CartOutput, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return CartOutput{}, validationError("variant_id required")
	}
	c, err := u.open(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	if err := c.RemoveItem(ctx, variantID); err != nil {
		return CartOutput{}, u.saveFailed(userID, err)
	}
	return u.output(c), nil
}

// コードは大文字小文字を区別する
func (u *CartUsecase) ApplyCoupon(ctx context.Context, userID int64, code string) (CartOutput, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return CartOutput{}, validationError("code required")
	}
	c, err := u.open(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	err = c.ApplyCoupon(ctx, code)
	if errors.Is(err, ledger.ErrCouponNotFound) {
		return CartOutput{}, invalidCodeError("invalid coupon code")
	}
	if err != nil {
		return CartOutput{}, u.saveFailed(userID, err)
	}
	return u.output(c), nil
}

func (u *CartUsecase) RemoveCoupon(ctx context.Context, userID int64) (CartOutput, error) {
	c, err := u.open(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	if err := c.RemoveCoupon(ctx); err != nil {
		return CartOutput{}, u.saveFailed(userID, err)
	}
	return u.output(c), nil
}

func (u *CartUsecase) Clear(ctx context.Context, userID int64) (CartOutput, error) {
	c, err := u.open(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	if err := c.Clear(ctx); err != nil {
		return CartOutput{}, u.saveFailed(userID, err)
	}
	return u.output(c), nil
}

// variant未指定なら購入可能な最初のもの
func lineItemFor(p model.Product, variantID string, qty int) (model.CartLineItem, error) {
	var (
		v  model.ProductVariant
		ok bool
	)
	if variantID == "" {
		v, ok = p.FirstAvailableVariant()
		if !ok {
			return model.CartLineItem{}, preconditionError("product is not available")
		}
	} else {
		v, ok = p.FindVariant(variantID)
		if !ok {
			return model.CartLineItem{}, notFoundError("variant not found")
		}
		if !v.AvailableForSale {
			return model.CartLineItem{}, preconditionError("variant is not available")
		}
	}

	opts := v.SelectedOptions
	if opts == nil {
		opts = []model.SelectedOption{}
	}
	return model.CartLineItem{
		Product:         p,
		VariantID:       v.ID,
		VariantTitle:    v.Title,
		Price:           v.Price,
		Quantity:        qty,
		SelectedOptions: opts,
	}, nil
}
