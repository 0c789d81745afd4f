package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	return &StripeProcessor{api: client.New(secretKey, nil)}
}

var _ Processor = (*StripeProcessor)(nil)

func (p *StripeProcessor) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}, nil
}

func (p *StripeProcessor) Lookup(ctx context.Context, intentSecret string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(IntentIDFromSecret(intentSecret), params)
	if err != nil {
		return Intent{}, fmt.Errorf("get payment intent: %w", err)
	}
	if pi.ClientSecret != intentSecret {
		return Intent{}, fmt.Errorf("payment intent secret mismatch: %s", pi.ID)
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}, nil
}

// カードエラーは拒否として扱い、文言をそのまま返す
func (p *StripeProcessor) Confirm(ctx context.Context, intentSecret string, paymentMethod string) (ConfirmResult, error) {
	id := IntentIDFromSecret(intentSecret)
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
			return ConfirmResult{IntentID: id, Status: "declined", Message: se.Msg}, nil
		}
		return ConfirmResult{}, fmt.Errorf("confirm payment intent: %w", err)
	}

	res := ConfirmResult{
		IntentID: pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded && pi.LastPaymentError != nil {
		res.Message = pi.LastPaymentError.Msg
	}
	return res, nil
}
