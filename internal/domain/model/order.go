package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodGiftCard   PaymentMethod = "giftcard"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type Order struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64           `gorm:"not null;index" json:"user_id"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Currency         string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod    PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentReference string          `gorm:"type:varchar(255)" json:"payment_reference,omitempty"`
	ShippingAddress  string          `gorm:"type:text;not null" json:"shipping_address"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
