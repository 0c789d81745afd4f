package payment

import (
	"context"
	"strings"
)

// 決済インテント
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`

	Status   string            `json:"-"`
	Metadata map[string]string `json:"-"`
}

const StatusSucceeded = "succeeded"

// Confirmの結果。拒否された場合はMessageに決済会社の文言が入る。
// Amount/Currencyは実際に確定した金額（最小単位、小文字）。
type ConfirmResult struct {
	IntentID string
	Status   string
	Message  string
	Amount   int64
	Currency string
}

func (r ConfirmResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// 外部の決済会社
type Processor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error)
	// 確定前に金額・通貨・持ち主を確かめる
	Lookup(ctx context.Context, intentSecret string) (Intent, error)
	Confirm(ctx context.Context, intentSecret string, paymentMethod string) (ConfirmResult, error)
}

// "pi_123_secret_abc" -> "pi_123"
func IntentIDFromSecret(secret string) string {
	if i := strings.Index(secret, "_secret_"); i > 0 {
		return secret[:i]
	}
	return secret
}
