package usecase

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/ledger"
	"storefront/internal/promo"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type WishlistUsecase struct {
	store    repo.StateStore
	coupons  promo.CouponResolver
	products ProductLookup
	logger   *zap.Logger
}

func NewWishlistUsecase(store repo.StateStore, coupons promo.CouponResolver, products ProductLookup, logger *zap.Logger) *WishlistUsecase {
	return &WishlistUsecase{store: store, coupons: coupons, products: products, logger: logger}
}

type WishlistOutput struct {
	Items []model.Product `json:"items"`
}

func (u *WishlistUsecase) open(ctx context.Context, userID int64) (*ledger.Wishlist, error) {
	if userID <= 0 {
		return nil, unauthorizedError()
	}
	w, err := ledger.OpenWishlist(ctx, u.store, userID)
	if err != nil {
		u.logger.Error("open wishlist", zap.Int64("user_id", userID), zap.Error(err))
		return nil, internalError(err)
	}
	return w, nil
}

func (u *WishlistUsecase) saveFailed(userID int64, err error) error {
	u.logger.Error("save wishlist", zap.Int64("user_id", userID), zap.Error(err))
	return internalError(err)
}

func (u *WishlistUsecase) Get(ctx context.Context, userID int64) (WishlistOutput, error) {
	w, err := u.open(ctx, userID)
	if err != nil {
		return WishlistOutput{}, err
	}
	return WishlistOutput{Items: w.Items()}, nil
}

// 既にあれば何もしない
func (u *WishlistUsecase) AddItem(ctx context.Context, userID int64, productID string) (WishlistOutput, error) {
	w, err := u.open(ctx, userID)
	if err != nil {
		return WishlistOutput{}, err
	}
	p, err := u.products.Get(ctx, productID)
	if err != nil {
		return WishlistOutput{}, err
	}
	if err := w.AddItem(ctx, p); err != nil {
		return WishlistOutput{}, u.saveFailed(userID, err)
	}
	return WishlistOutput{Items: w.Items()}, nil
}

func (u *WishlistUsecase) RemoveItem(ctx context.Context, userID int64, productID string) (WishlistOutput, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return WishlistOutput{}, validationError("product_id required")
	}
	w, err := u.open(ctx, userID)
	if err != nil {
		return WishlistOutput{}, err
	}
	if err := w.RemoveItem(ctx, productID); err != nil {
		return WishlistOutput{}, u.saveFailed(userID, err)
	}
	return WishlistOutput{Items: w.Items()}, nil
}

func (u *WishlistUsecase) Contains(ctx context.Context, userID int64, productID string) (bool, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, validationError("product_id required")
	}
	w, err := u.open(ctx, userID)
	if err != nil {
		return false, err
	}
	return w.IsInWishlist(productID), nil
}

func (u *WishlistUsecase) Clear(ctx context.Context, userID int64) (WishlistOutput, error) {
	w, err := u.open(ctx, userID)
	if err != nil {
		return WishlistOutput{}, err
	}
	if err := w.Clear(ctx); err != nil {
		return WishlistOutput{}, u.saveFailed(userID, err)
	}
	return WishlistOutput{Items: w.Items()}, nil
}

// 保存した商品を最初の購入可能なvariantでカートへ移す
func (u *WishlistUsecase) MoveToCart(ctx context.Context, userID int64, productID string) (WishlistOutput, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return WishlistOutput{}, validationError("product_id required")
	}
	w, err := u.open(ctx, userID)
	if err != nil {
		return WishlistOutput{}, err
	}
	p, ok := w.Find(productID)
	if !ok {
		return WishlistOutput{}, notFoundError("product not in wishlist")
	}
	item, err := lineItemFor(p, "", 1)
	if err != nil {
		return WishlistOutput{}, err
	}

	c, err := ledger.OpenCart(ctx, u.store, u.coupons, userID)
	if err != nil {
		u.logger.Error("open cart", zap.Int64("user_id", userID), zap.Error(err))
		return WishlistOutput{}, internalError(err)
	}
	if err := c.AddItem(ctx, item); err != nil {
		return WishlistOutput{}, u.saveFailed(userID, err)
	}
	if err := w.RemoveItem(ctx, productID); err != nil {
		return WishlistOutput{}, u.saveFailed(userID, err)
	}
	return WishlistOutput{Items: w.Items()}, nil
}
