package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 決済済みだが注文の保存に失敗したものを後で登録し直すためのタスク
type ReconciliationTask struct {
	ID               string          `json:"id"`
	UserID           int64           `json:"user_id"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	Status           OrderStatus     `json:"status"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	PaymentReference string          `json:"payment_reference"`
	Customer         CustomerDetails `json:"customer"`
	Cart             CartState       `json:"cart"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	Attempts         int             `json:"attempts"`
	LastError        string          `json:"last_error,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
