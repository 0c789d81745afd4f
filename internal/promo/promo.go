package promo

import (
	"context"

	"github.com/shopspring/decimal"
)

// クーポンコード -> 割引率
type CouponResolver interface {
	ResolveCoupon(ctx context.Context, code string) (percent int, ok bool, err error)
}

// ギフトカードコード -> 金額
type GiftCardResolver interface {
	ResolveGiftCard(ctx context.Context, code string) (amount decimal.Decimal, ok bool, err error)
}

// コード表。大文字小文字は区別する。
type StaticCoupons map[string]int

func DefaultCoupons() StaticCoupons {
	return StaticCoupons{
		"SAVE10":    10,
		"SAVE20":    20,
		"WELCOME15": 15,
		"SUMMER25":  25,
	}
}

func (t StaticCoupons) ResolveCoupon(_ context.Context, code string) (int, bool, error) {
	pct, ok := t[code]
	if !ok || pct < 0 || pct > 100 {
		return 0, false, nil
	}
	return pct, true, nil
}

type StaticGiftCards map[string]decimal.Decimal

func DefaultGiftCards() StaticGiftCards {
	return StaticGiftCards{
		"GIFT25":     decimal.NewFromInt(25),
		"GIFT50":     decimal.NewFromInt(50),
		"GIFT100":    decimal.NewFromInt(100),
		"WELCOME20":  decimal.NewFromInt(20),
		"BIRTHDAY30": decimal.NewFromInt(30),
	}
}

func (t StaticGiftCards) ResolveGiftCard(_ context.Context, code string) (decimal.Decimal, bool, error) {
	amount, ok := t[code]
	if !ok {
		return decimal.Zero, false, nil
	}
	return amount, true, nil
}
