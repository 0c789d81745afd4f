package usecase

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/infra/payment"
	"storefront/internal/ledger"

	"go.uber.org/zap"
)

type PaymentOption struct {
	Method    model.PaymentMethod `json:"method"`
	Available bool                `json:"available"`
	Reason    string              `json:"reason,omitempty"`
}

// GET /checkout/summary
type CheckoutSummary struct {
	Totals         model.CartTotals       `json:"totals"`
	ItemCount      int                    `json:"item_count"`
	GiftCard       *model.AppliedGiftCard `json:"gift_card"`
	PaymentMethods []PaymentOption        `json:"payment_methods"`
}

func (u *CheckoutUsecase) Summary(ctx context.Context, userID int64) (CheckoutSummary, error) {
	if userID <= 0 {
		return CheckoutSummary{}, unauthorizedError()
	}
	cart, err := ledger.OpenCart(ctx, u.store, u.coupons, userID)
	if err != nil {
		u.logger.Error("open cart", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutSummary{}, internalError(err)
	}
	sess, err := u.sessions.load(ctx, userID)
	if err != nil {
		u.logger.Error("load checkout session", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutSummary{}, internalError(err)
	}

	snapshot := cart.Snapshot()
	totals := snapshot.Totals(u.cfg.Currency)
	return CheckoutSummary{
		Totals:         totals,
		ItemCount:      len(snapshot.Items),
		GiftCard:       sess.GiftCard,
		PaymentMethods: u.paymentOptions(snapshot, sess),
	}, nil
}

func (u *CheckoutUsecase) paymentOptions(cart model.CartState, sess model.CheckoutSession) []PaymentOption {
	total := cart.Total()
	if cart.IsEmpty() {
		out := make([]PaymentOption, 0, 4)
		for _, m := range []model.PaymentMethod{model.PaymentMethodCard, model.PaymentMethodCOD, model.PaymentMethodNetBanking, model.PaymentMethodGiftCard} {
			out = append(out, PaymentOption{Method: m, Reason: "cart is empty"})
		}
		return out
	}

	cod := PaymentOption{Method: model.PaymentMethodCOD, Available: true}
	if s, ok := u.strategies[model.PaymentMethodCOD].(*codStrategy); ok {
		if reason, avail := s.available(total); !avail {
			cod.Available = false
			cod.Reason = reason
		}
	}

	gift := PaymentOption{Method: model.PaymentMethodGiftCard, Available: true}
	switch {
	case sess.GiftCard == nil:
		gift.Available = false
		gift.Reason = "apply a gift card first"
	case !sess.GiftCard.Covers(total):
		gift.Available = false
		gift.Reason = "insufficient gift card balance"
	}

	return []PaymentOption{
		{Method: model.PaymentMethodCard, Available: true},
		cod,
		{Method: model.PaymentMethodNetBanking, Available: true},
		gift,
	}
}

// コードは大文字にそろえる。1つだけ適用、前のものは置き換える。
func (u *CheckoutUsecase) ApplyGiftCard(ctx context.Context, userID int64, code string) (CheckoutSummary, error) {
	if userID <= 0 {
		return CheckoutSummary{}, unauthorizedError()
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CheckoutSummary{}, validationError("code required")
	}
	amount, ok, err := u.giftCards.ResolveGiftCard(ctx, code)
	if err != nil {
		u.logger.Error("resolve gift card", zap.Error(err))
		return CheckoutSummary{}, internalError(err)
	}
	if !ok {
		return CheckoutSummary{}, invalidCodeError("invalid gift card code")
	}

	sess := model.CheckoutSession{GiftCard: &model.AppliedGiftCard{Code: code, Amount: amount}}
	if err := u.sessions.save(ctx, userID, sess); err != nil {
		u.logger.Error("save checkout session", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutSummary{}, internalError(err)
	}
	return u.Summary(ctx, userID)
}

func (u *CheckoutUsecase) RemoveGiftCard(ctx context.Context, userID int64) (CheckoutSummary, error) {
	if userID <= 0 {
		return CheckoutSummary{}, unauthorizedError()
	}
	if err := u.sessions.clear(ctx, userID); err != nil {
		u.logger.Error("clear checkout session", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutSummary{}, internalError(err)
	}
	return u.Summary(ctx, userID)
}

// カード入力前にインテントを作る（client secretを返す）
func (u *CheckoutUsecase) CreatePaymentIntent(ctx context.Context, userID int64) (payment.Intent, error) {
	if userID <= 0 {
		return payment.Intent{}, unauthorizedError()
	}
	cart, err := ledger.OpenCart(ctx, u.store, u.coupons, userID)
	if err != nil {
		u.logger.Error("open cart", zap.Int64("user_id", userID), zap.Error(err))
		return payment.Intent{}, internalError(err)
	}
	snapshot := cart.Snapshot()
	if snapshot.IsEmpty() {
		return payment.Intent{}, validationError("cart is empty")
	}
	return createIntent(ctx, u.processor, userID, snapshot, snapshot.Total(), snapshot.Currency(u.cfg.Currency))
}
