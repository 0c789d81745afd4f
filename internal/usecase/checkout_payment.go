package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/infra/payment"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 支払い方法ごとの処理
type PaymentStrategy interface {
	Method() model.PaymentMethod
	// 書き込み前の入力チェック
	Validate(in CheckoutInput) error
	Execute(ctx context.Context, oc *OrderContext) (CheckoutResult, error)
}

// カード決済
type cardStrategy struct {
	processor payment.Processor
}

func (s *cardStrategy) Method() model.PaymentMethod { return model.PaymentMethodCard }

func (s *cardStrategy) Validate(in CheckoutInput) error {
	if strings.TrimSpace(in.CardToken) == "" {
		return validationError("payment_method token required")
	}
	return nil
}

func (s *cardStrategy) Execute(ctx context.Context, oc *OrderContext) (CheckoutResult, error) {
	amount := model.MinorUnits(oc.Total)
	currency := strings.ToLower(oc.Currency)

	secret := strings.TrimSpace(oc.Input.IntentClientSecret)
	if secret == "" {
		intent, err := createIntent(ctx, s.processor, oc.UserID, oc.Cart, oc.Total, oc.Currency)
		if err != nil {
			return CheckoutResult{}, err
		}
		secret = intent.ClientSecret
	} else {
		// 手元のインテントは今のカートと同じ金額・持ち主でなければ使わない
		intent, err := s.processor.Lookup(ctx, secret)
		if err != nil {
			return CheckoutResult{}, processorError(err.Error(), err)
		}
		if err := checkIntent(intent, oc.UserID, amount, currency); err != nil {
			return CheckoutResult{}, err
		}
	}

	res, err := s.processor.Confirm(ctx, secret, strings.TrimSpace(oc.Input.CardToken))
	if err != nil {
		return CheckoutResult{}, processorError(err.Error(), err)
	}
	if !res.Succeeded() {
		msg := res.Message
		if msg == "" {
			msg = "payment failed"
		}
		return CheckoutResult{}, processorError(msg, nil)
	}
	if res.Amount != amount || !strings.EqualFold(res.Currency, currency) {
		oc.u.logger.Error("charged amount differs from order total",
			zap.Int64("user_id", oc.UserID),
			zap.String("payment_reference", res.IntentID),
			zap.Int64("charged", res.Amount),
			zap.String("charged_currency", res.Currency),
			zap.Int64("expected", amount),
		)
		return CheckoutResult{}, preconditionError("payment amount does not match order total")
	}

	ref := res.IntentID
	if ref == "" {
		ref = payment.IntentIDFromSecret(secret)
	}
	terms := OrderTerms{
		Method:           model.PaymentMethodCard,
		Status:           model.OrderStatusCompleted,
		PaymentStatus:    model.PaymentStatusPaid,
		PaymentReference: ref,
	}
	out, err := oc.Commit(ctx, terms)
	if err != nil && IsKind(err, KindPersistence) {
		return oc.u.deferToReconciliation(ctx, oc, terms, err)
	}
	return out, err
}

func checkIntent(in payment.Intent, userID int64, amount int64, currency string) error {
	if in.Status == payment.StatusSucceeded {
		return preconditionError("payment intent already used")
	}
	if in.Metadata["user_id"] != strconv.FormatInt(userID, 10) {
		return preconditionError("payment intent does not belong to user")
	}
	if in.Amount != amount || !strings.EqualFold(in.Currency, currency) {
		return preconditionError("payment intent does not match cart total")
	}
	return nil
}

// 代金引換。最低金額未満は不可。
type codStrategy struct {
	minimum decimal.Decimal
}

func (s *codStrategy) Method() model.PaymentMethod { return model.PaymentMethodCOD }

func (s *codStrategy) Validate(CheckoutInput) error { return nil }

func (s *codStrategy) Execute(ctx context.Context, oc *OrderContext) (CheckoutResult, error) {
	if reason, ok := s.available(oc.Total); !ok {
		return CheckoutResult{}, preconditionError(reason)
	}
	return oc.Commit(ctx, OrderTerms{
		Method:        model.PaymentMethodCOD,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	})
}

func (s *codStrategy) available(total decimal.Decimal) (string, bool) {
	if total.LessThan(s.minimum) {
		return "cash on delivery is not available for orders under " + model.FormatUSD(s.minimum), false
	}
	return "", true
}

// ネットバンキング。実際の決済はしない。
type netBankingStrategy struct {
	logger *zap.Logger
}

func (s *netBankingStrategy) Method() model.PaymentMethod { return model.PaymentMethodNetBanking }

func (s *netBankingStrategy) Validate(CheckoutInput) error { return nil }

func (s *netBankingStrategy) Execute(ctx context.Context, oc *OrderContext) (CheckoutResult, error) {
	s.logger.Info("net banking checkout",
		zap.Int64("user_id", oc.UserID),
		zap.String("bank", strings.TrimSpace(oc.Input.Bank)),
	)
	return oc.Commit(ctx, OrderTerms{
		Method:        model.PaymentMethodNetBanking,
		Status:        model.OrderStatusCompleted,
		PaymentStatus: model.PaymentStatusPaid,
	})
}

// ギフトカード。残高が合計以上のときだけ使える。
type giftCardStrategy struct {
	sessions *checkoutSessions
}

func (s *giftCardStrategy) Method() model.PaymentMethod { return model.PaymentMethodGiftCard }

func (s *giftCardStrategy) Validate(CheckoutInput) error { return nil }

func (s *giftCardStrategy) Execute(ctx context.Context, oc *OrderContext) (CheckoutResult, error) {
	sess, err := s.sessions.load(ctx, oc.UserID)
	if err != nil {
		return CheckoutResult{}, internalError(err)
	}
	if sess.GiftCard == nil || !sess.GiftCard.Covers(oc.Total) {
		return CheckoutResult{}, preconditionError("insufficient gift card balance")
	}
	return oc.Commit(ctx, OrderTerms{
		Method:           model.PaymentMethodGiftCard,
		Status:           model.OrderStatusCompleted,
		PaymentStatus:    model.PaymentStatusPaid,
		PaymentReference: sess.GiftCard.Code,
	})
}

type cartMetadataItem struct {
	ID       string `json:"id"`
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

// 金額はセント、通貨は小文字
func createIntent(ctx context.Context, p payment.Processor, userID int64, cart model.CartState, total decimal.Decimal, currency string) (payment.Intent, error) {
	lines := make([]cartMetadataItem, 0, len(cart.Items))
	for _, li := range cart.Items {
		lines = append(lines, cartMetadataItem{ID: li.Product.ID, Variant: li.VariantID, Quantity: li.Quantity})
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return payment.Intent{}, internalError(err)
	}
	intent, err := p.CreateIntent(ctx, model.MinorUnits(total), strings.ToLower(currency), map[string]string{
		"items":    string(raw),
		"discount": strconv.Itoa(cart.Discount),
		"user_id":  strconv.FormatInt(userID, 10),
	})
	if err != nil {
		return payment.Intent{}, processorError(err.Error(), err)
	}
	return intent, nil
}

func newReconciliationID() string {
	return uuid.NewString()
}

func checkoutSessionKey(userID int64) string {
	return fmt.Sprintf("checkout-session:%d", userID)
}

// チェックアウト中の一時状態（適用中のギフトカード）
type checkoutSessions struct {
	store repo.StateStore
}

func (s *checkoutSessions) load(ctx context.Context, userID int64) (model.CheckoutSession, error) {
	var sess model.CheckoutSession
	if _, err := s.store.Load(ctx, checkoutSessionKey(userID), &sess); err != nil {
		return model.CheckoutSession{}, fmt.Errorf("load checkout session: %w", err)
	}
	return sess, nil
}

func (s *checkoutSessions) save(ctx context.Context, userID int64, sess model.CheckoutSession) error {
	if err := s.store.Save(ctx, checkoutSessionKey(userID), sess); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (s *checkoutSessions) clear(ctx context.Context, userID int64) error {
	return s.store.Delete(ctx, checkoutSessionKey(userID))
}
