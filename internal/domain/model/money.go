package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// 既定の通貨
const DefaultCurrency = "USD"

// 金額と通貨コード。floatは使わない。
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, CurrencyCode: strings.ToUpper(currency)}
}

// "24.99"のような文字列から作る
func ParseMoney(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("negative amount %q", amount)
	}
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return NewMoney(d, currency), nil
}

// 最小通貨単位（セント）に丸める
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// 表示用 "$10.00"
func FormatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
