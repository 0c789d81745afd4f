package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/domain/model"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlaced struct {
	OrderID       int64               `json:"order_id"`
	UserID        int64               `json:"user_id"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Currency      string              `json:"currency"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Items         []OrderPlacedItem   `json:"items"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

func NewOrderPlaced(o model.Order, items []model.OrderItem, now time.Time) OrderPlaced {
	ev := OrderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Items:         make([]OrderPlacedItem, 0, len(items)),
		OccurredAt:    now,
	}
	for _, it := range items {
		ev.Items = append(ev.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return ev
}

// *kafka.Writerのうち使う部分
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// keyは注文ID（同じ注文のイベントを順番どおりに）
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ブローカー未設定のとき
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
