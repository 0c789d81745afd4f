package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// 開発用の決済。テスト用トークンで結果が決まる。
type FakeProcessor struct {
	mu      sync.Mutex
	intents map[string]Intent
}

func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{intents: map[string]Intent{}}
}

var _ Processor = (*FakeProcessor)(nil)

var fakeDeclines = map[string]string{
	"pm_card_chargeDeclined":    "Your card was declined.",
	"pm_card_insufficientFunds": "Your card has insufficient funds.",
	"pm_card_expired":           "Your card has expired.",
}

const statusRequiresPaymentMethod = "requires_payment_method"

func (p *FakeProcessor) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	if amountMinor <= 0 {
		return Intent{}, fmt.Errorf("amount must be positive")
	}
	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	in := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Amount:       amountMinor,
		Currency:     strings.ToLower(currency),
		Status:       statusRequiresPaymentMethod,
		Metadata:     md,
	}
	p.mu.Lock()
	p.intents[id] = in
	p.mu.Unlock()
	return in, nil
}

func (p *FakeProcessor) Lookup(_ context.Context, intentSecret string) (Intent, error) {
	id := IntentIDFromSecret(intentSecret)

	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.intents[id]
	if !ok || in.ClientSecret != intentSecret {
		return Intent{}, fmt.Errorf("no such payment intent: %s", id)
	}
	return in, nil
}

// 成功済みのインテントは二度確定しない
func (p *FakeProcessor) Confirm(_ context.Context, intentSecret string, paymentMethod string) (ConfirmResult, error) {
	id := IntentIDFromSecret(intentSecret)

	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.intents[id]
	if !ok {
		return ConfirmResult{}, fmt.Errorf("no such payment intent: %s", id)
	}
	if in.Status == StatusSucceeded {
		return ConfirmResult{}, fmt.Errorf("payment intent %s has already succeeded", id)
	}

	res := ConfirmResult{IntentID: id, Amount: in.Amount, Currency: in.Currency}
	if msg, declined := fakeDeclines[paymentMethod]; declined {
		res.Status, res.Message = "declined", msg
		return res, nil
	}
	if !strings.HasPrefix(paymentMethod, "pm_") {
		res.Status, res.Message = "declined", "Invalid payment method."
		return res, nil
	}

	in.Status = StatusSucceeded
	p.intents[id] = in
	res.Status = StatusSucceeded
	return res, nil
}
