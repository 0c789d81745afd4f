package model

import "github.com/shopspring/decimal"

// 適用中のギフトカード
type AppliedGiftCard struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// 残高が合計以上か
func (g AppliedGiftCard) Covers(total decimal.Decimal) bool {
	return g.Amount.GreaterThanOrEqual(total)
}

// チェックアウト中の一時状態
type CheckoutSession struct {
	GiftCard *AppliedGiftCard `json:"giftCard"`
}
