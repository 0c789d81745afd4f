package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentIDFromSecret(t *testing.T) {
	assert.Equal(t, "pi_123", IntentIDFromSecret("pi_123_secret_abc"))
	assert.Equal(t, "pi_123", IntentIDFromSecret("pi_123"))
	assert.Equal(t, "", IntentIDFromSecret(""))
}

func TestFakeProcessor(t *testing.T) {
	ctx := context.Background()
	p := NewFakeProcessor()

	tests := []struct {
		method  string
		ok      bool
		message string
	}{
		{method: "pm_card_visa", ok: true},
		{method: "pm_card_mastercard", ok: true},
		{method: "pm_card_chargeDeclined", message: "Your card was declined."},
		{method: "pm_card_insufficientFunds", message: "Your card has insufficient funds."},
		{method: "tok_bad", message: "Invalid payment method."},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			in, err := p.CreateIntent(ctx, 2000, "USD", map[string]string{"discount": "0"})
			require.NoError(t, err)
			assert.Equal(t, "usd", in.Currency)
			assert.Equal(t, in.ID, IntentIDFromSecret(in.ClientSecret))

			res, err := p.Confirm(ctx, in.ClientSecret, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, res.Succeeded())
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, int64(2000), res.Amount)
			assert.Equal(t, "usd", res.Currency)
		})
	}
}

func TestFakeProcessor_SucceededIntentCannotBeConfirmedAgain(t *testing.T) {
	ctx := context.Background()
	p := NewFakeProcessor()
	in, err := p.CreateIntent(ctx, 100, "usd", nil)
	require.NoError(t, err)

	res, err := p.Confirm(ctx, in.ClientSecret, "pm_card_visa")
	require.NoError(t, err)
	require.True(t, res.Succeeded())

	_, err = p.Confirm(ctx, in.ClientSecret, "pm_card_visa")
	assert.ErrorContains(t, err, "already succeeded")

	got, err := p.Lookup(ctx, in.ClientSecret)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
}

func TestFakeProcessor_DeclineLeavesIntentOpen(t *testing.T) {
	ctx := context.Background()
	p := NewFakeProcessor()
	in, err := p.CreateIntent(ctx, 100, "usd", nil)
	require.NoError(t, err)

	res, err := p.Confirm(ctx, in.ClientSecret, "pm_card_expired")
	require.NoError(t, err)
	assert.False(t, res.Succeeded())

	res, err = p.Confirm(ctx, in.ClientSecret, "pm_card_visa")
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
}

func TestFakeProcessor_Lookup(t *testing.T) {
	ctx := context.Background()
	p := NewFakeProcessor()
	in, err := p.CreateIntent(ctx, 4599, "USD", map[string]string{"user_id": "7"})
	require.NoError(t, err)

	got, err := p.Lookup(ctx, in.ClientSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(4599), got.Amount)
	assert.Equal(t, "usd", got.Currency)
	assert.Equal(t, "7", got.Metadata["user_id"])
	assert.Equal(t, statusRequiresPaymentMethod, got.Status)

	_, err = p.Lookup(ctx, in.ID+"_secret_wrong")
	assert.Error(t, err)
	_, err = p.Lookup(ctx, "pi_missing_secret_x")
	assert.Error(t, err)
}

func TestFakeProcessor_UnknownIntent(t *testing.T) {
	_, err := NewFakeProcessor().Confirm(context.Background(), "pi_missing_secret_x", "pm_card_visa")
	assert.Error(t, err)
}

func TestFakeProcessor_RejectsZeroAmount(t *testing.T) {
	_, err := NewFakeProcessor().CreateIntent(context.Background(), 0, "usd", nil)
	assert.Error(t, err)
}
