package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
	"storefront/internal/infra/payment"
	"storefront/internal/ledger"
	"storefront/internal/promo"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 注文確定後の遷移先
const (
	RedirectOrders = "/orders"
	RedirectHome   = "/"
)

type CheckoutState string

const (
	CheckoutCommitted             CheckoutState = "committed"
	CheckoutPendingReconciliation CheckoutState = "pending_reconciliation"
)

// チェックアウトの結果
type CheckoutResult struct {
	State            CheckoutState       `json:"state"`
	OrderID          int64               `json:"order_id,omitempty"`
	ReconciliationID string              `json:"reconciliation_id,omitempty"`
	PaymentMethod    model.PaymentMethod `json:"payment_method"`
	PaymentStatus    model.PaymentStatus `json:"payment_status"`
	Status           model.OrderStatus   `json:"status"`
	Total            decimal.Decimal     `json:"total"`
	Currency         string              `json:"currency"`
	Redirect         string              `json:"redirect"`
}

type CheckoutInput struct {
	Customer      model.CustomerDetails
	PaymentMethod model.PaymentMethod

	// card
	CardToken          string
	IntentClientSecret string

	// netbanking（表示用）
	Bank string
}

type CheckoutConfig struct {
	Currency        string
	CODMinimumTotal decimal.Decimal
}

type CheckoutDeps struct {
	Tx        repo.TransactionManager
	Users     repo.UserRepository
	Store     repo.StateStore
	Coupons   promo.CouponResolver
	GiftCards promo.GiftCardResolver
	Processor payment.Processor
	Publisher OrderEventPublisher
	Queue     ReconcileQueue
	Logger    *zap.Logger
}

type CheckoutUsecase struct {
	tx         repo.TransactionManager
	users      repo.UserRepository
	store      repo.StateStore
	coupons    promo.CouponResolver
	giftCards  promo.GiftCardResolver
	processor  payment.Processor
	publisher  OrderEventPublisher
	queue      ReconcileQueue
	sessions   *checkoutSessions
	strategies map[model.PaymentMethod]PaymentStrategy
	cfg        CheckoutConfig
	logger     *zap.Logger
	inFlight   *inFlightGuard
	now        func() time.Time
}

func NewCheckoutUsecase(d CheckoutDeps, cfg CheckoutConfig) *CheckoutUsecase {
	if cfg.Currency == "" {
		cfg.Currency = model.DefaultCurrency
	}
	u := &CheckoutUsecase{
		tx:        d.Tx,
		users:     d.Users,
		store:     d.Store,
		coupons:   d.Coupons,
		giftCards: d.GiftCards,
		processor: d.Processor,
		publisher: d.Publisher,
		queue:     d.Queue,
		sessions:  &checkoutSessions{store: d.Store},
		cfg:       cfg,
		logger:    d.Logger,
		inFlight:  newInFlightGuard(),
		now:       time.Now,
	}
	u.strategies = map[model.PaymentMethod]PaymentStrategy{}
	for _, s := range []PaymentStrategy{
		&cardStrategy{processor: d.Processor},
		&codStrategy{minimum: cfg.CODMinimumTotal},
		&netBankingStrategy{logger: d.Logger},
		&giftCardStrategy{sessions: u.sessions},
	} {
		u.strategies[s.Method()] = s
	}
	return u
}

// 1回のチェックアウトの材料
type OrderContext struct {
	UserID   int64
	Customer model.CustomerDetails
	Cart     model.CartState
	Total    decimal.Decimal
	Currency string
	Input    CheckoutInput

	u    *CheckoutUsecase
	cart *ledger.Cart
}

// 注文として残す支払い状態
type OrderTerms struct {
	Method           model.PaymentMethod
	Status           model.OrderStatus
	PaymentStatus    model.PaymentStatus
	PaymentReference string
}

// 注文を保存し、カートとセッションを空にする
func (oc *OrderContext) Commit(ctx context.Context, terms OrderTerms) (CheckoutResult, error) {
	order, items, err := oc.u.placeOrder(ctx, oc.UserID, oc.Customer, oc.Cart, oc.Total, oc.Currency, terms)
	if err != nil {
		oc.u.logger.Error("place order",
			zap.Int64("user_id", oc.UserID),
			zap.String("payment_method", string(terms.Method)),
			zap.Error(err),
		)
		return CheckoutResult{}, persistenceError("failed to place order", err)
	}

	oc.u.clearCheckoutState(ctx, oc.UserID, oc.cart)
	oc.u.publishPlaced(ctx, order, items)

	return CheckoutResult{
		State:         CheckoutCommitted,
		OrderID:       order.ID,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Status:        order.Status,
		Total:         order.TotalAmount,
		Currency:      order.Currency,
		Redirect:      RedirectOrders,
	}, nil
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutResult, error) {
	if userID <= 0 {
		return CheckoutResult{}, unauthorizedError()
	}
	if !u.inFlight.acquire(userID) {
		return CheckoutResult{}, preconditionError("checkout already in progress")
	}
	defer u.inFlight.release(userID)

	// 入力チェック（ここまでは何も書き込まない）
	customer := in.Customer.Normalize()
	if missing := customer.MissingFields(); len(missing) > 0 {
		return CheckoutResult{}, validationError("missing required fields: " + strings.Join(missing, ", "))
	}
	strategy, ok := u.strategies[in.PaymentMethod]
	if !ok {
		return CheckoutResult{}, validationError("unsupported payment method")
	}
	if err := strategy.Validate(in); err != nil {
		return CheckoutResult{}, err
	}

	cart, err := ledger.OpenCart(ctx, u.store, u.coupons, userID)
	if err != nil {
		u.logger.Error("open cart", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutResult{}, internalError(err)
	}
	snapshot := cart.Snapshot()
	if snapshot.IsEmpty() {
		return CheckoutResult{}, validationError("cart is empty")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !user.IsActive) {
		return CheckoutResult{}, unauthorizedError()
	}
	if err != nil {
		u.logger.Error("find user", zap.Int64("user_id", userID), zap.Error(err))
		return CheckoutResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	oc := &OrderContext{
		UserID:   userID,
		Customer: customer,
		Cart:     snapshot,
		Total:    snapshot.Total(),
		Currency: snapshot.Currency(u.cfg.Currency),
		Input:    in,
		u:        u,
		cart:     cart,
	}
	return strategy.Execute(ctx, oc)
}

// プロフィール上書き・注文作成・明細作成を1トランザクションで行う
func (u *CheckoutUsecase) placeOrder(
	ctx context.Context,
	userID int64,
	customer model.CustomerDetails,
	cart model.CartState,
	total decimal.Decimal,
	currency string,
	terms OrderTerms,
) (model.Order, []model.OrderItem, error) {
	now := u.now()
	order := model.Order{
		UserID:           userID,
		TotalAmount:      total,
		Currency:         currency,
		Status:           terms.Status,
		PaymentMethod:    terms.Method,
		PaymentStatus:    terms.PaymentStatus,
		PaymentReference: terms.PaymentReference,
		ShippingAddress:  customer.ShippingAddress(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	items := orderItemsFor(cart, now)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Profiles().Upsert(ctx, customer.ToProfile(userID)); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order.ID = id

		//DBの商品がなければ明細は作らない
		if len(items) == 0 {
			return nil
		}
		if err := r.OrderItems().CreateBulk(ctx, id, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Order{}, nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	return order, items, nil
}

// "store-"の行だけを明細にする
func orderItemsFor(cart model.CartState, now time.Time) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, li := range cart.Items {
		id, ok := model.ParseStoreProductID(li.Product.ID)
		if !ok {
			continue
		}
		items = append(items, model.OrderItem{
			ProductID:           id,
			ProductNameSnapshot: li.Product.Title,
			UnitPrice:           li.Price.Amount,
			Quantity:            int64(li.Quantity),
			CreatedAt:           now,
		})
	}
	return items
}

// 注文は確定済みなので失敗はログだけ
func (u *CheckoutUsecase) clearCheckoutState(ctx context.Context, userID int64, cart *ledger.Cart) {
	if err := cart.Clear(ctx); err != nil {
		u.logger.Error("clear cart after checkout", zap.Int64("user_id", userID), zap.Error(err))
	}
	if err := u.sessions.clear(ctx, userID); err != nil {
		u.logger.Error("clear checkout session", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (u *CheckoutUsecase) publishPlaced(ctx context.Context, order model.Order, items []model.OrderItem) {
	ev := events.NewOrderPlaced(order, items, u.now())
	if err := u.publisher.PublishOrderPlaced(ctx, ev); err != nil {
		u.logger.Warn("publish order placed",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}

// 決済済みで保存に失敗した注文を後で登録する
func (u *CheckoutUsecase) deferToReconciliation(ctx context.Context, oc *OrderContext, terms OrderTerms, cause error) (CheckoutResult, error) {
	task := model.ReconciliationTask{
		ID:               newReconciliationID(),
		UserID:           oc.UserID,
		PaymentMethod:    terms.Method,
		Status:           terms.Status,
		PaymentStatus:    terms.PaymentStatus,
		PaymentReference: terms.PaymentReference,
		Customer:         oc.Customer,
		Cart:             oc.Cart,
		Total:            oc.Total,
		Currency:         oc.Currency,
		LastError:        cause.Error(),
		CreatedAt:        u.now(),
	}
	if err := u.queue.Enqueue(ctx, task); err != nil {
		u.logger.Error("enqueue reconciliation",
			zap.Int64("user_id", oc.UserID),
			zap.String("payment_reference", terms.PaymentReference),
			zap.Error(err),
		)
		task.ID = ""
	} else {
		u.logger.Warn("order deferred to reconciliation",
			zap.String("reconciliation_id", task.ID),
			zap.String("payment_reference", terms.PaymentReference),
		)
	}

	// 支払いは済んでいるのでカートは空にする
	u.clearCheckoutState(ctx, oc.UserID, oc.cart)

	return CheckoutResult{
		State:            CheckoutPendingReconciliation,
		ReconciliationID: task.ID,
		PaymentMethod:    terms.Method,
		PaymentStatus:    terms.PaymentStatus,
		Status:           terms.Status,
		Total:            oc.Total,
		Currency:         oc.Currency,
		Redirect:         RedirectHome,
	}, nil
}

// ユーザーごとに同時実行は1つまで（プロセス内）
type inFlightGuard struct {
	mu    sync.Mutex
	users map[int64]struct{}
}

func newInFlightGuard() *inFlightGuard {
	return &inFlightGuard{users: map[int64]struct{}{}}
}

func (g *inFlightGuard) acquire(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.users[userID]; busy {
		return false
	}
	g.users[userID] = struct{}{}
	return true
}

func (g *inFlightGuard) release(userID int64) {
	g.mu.Lock()
	delete(g.users, userID)
	g.mu.Unlock()
}
