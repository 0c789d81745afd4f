package usecase

import (
	"context"

	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
	"storefront/internal/infra/payment"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	profiles   repo.ProfileRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	products   repo.ProductRepository
	inventory  repo.InventoryRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Profiles() repo.ProfileRepository     { return r.profiles }
func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type ProfileRepoMock struct{ mock.Mock }

func (m *ProfileRepoMock) Upsert(ctx context.Context, p model.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProfileRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(model.Profile)
	return p, args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListForAnalytics(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.ProductRecord, int64, error) {
	args := m.Called(ctx, q)
	ps, _ := args.Get(0).([]model.ProductRecord)
	return ps, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.ProductRecord, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.ProductRecord)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.ProductRecord) (model.ProductRecord, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.ProductRecord)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.ProductRecord) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	return m.Called(ctx, adminUserID, productID, newStock, reason).Error(0)
}

type AuditLogRepoMock struct{ mock.Mock }

func (m *AuditLogRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditLogRepoMock) History(ctx context.Context, q repo.AuditHistoryQuery) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, q)
	ls, _ := args.Get(0).([]model.AuditLog)
	return ls, args.Get(1).(int64), args.Error(2)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if len(args) > 1 {
		if fn, ok := args.Get(1).(func(*model.User)); ok {
			fn(user)
		}
	}
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// =====================
// Collaborator mocks
// =====================

type ProcessorMock struct{ mock.Mock }

func (m *ProcessorMock) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (payment.Intent, error) {
	args := m.Called(ctx, amountMinor, currency, metadata)
	in, _ := args.Get(0).(payment.Intent)
	return in, args.Error(1)
}

func (m *ProcessorMock) Lookup(ctx context.Context, intentSecret string) (payment.Intent, error) {
	args := m.Called(ctx, intentSecret)
	in, _ := args.Get(0).(payment.Intent)
	return in, args.Error(1)
}

func (m *ProcessorMock) Confirm(ctx context.Context, intentSecret string, paymentMethod string) (payment.ConfirmResult, error) {
	args := m.Called(ctx, intentSecret, paymentMethod)
	res, _ := args.Get(0).(payment.ConfirmResult)
	return res, args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishOrderPlaced(ctx context.Context, ev events.OrderPlaced) error {
	return m.Called(ctx, ev).Error(0)
}

type QueueMock struct{ mock.Mock }

func (m *QueueMock) Enqueue(ctx context.Context, task model.ReconciliationTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *QueueMock) Dequeue(ctx context.Context) (model.ReconciliationTask, bool, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(model.ReconciliationTask)
	return t, args.Bool(1), args.Error(2)
}

func (m *QueueMock) Ack(ctx context.Context, task model.ReconciliationTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *QueueMock) DeadLetter(ctx context.Context, task model.ReconciliationTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *QueueMock) Restore(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

type CatalogSourceMock struct{ mock.Mock }

func (m *CatalogSourceMock) FetchProducts(ctx context.Context, limit int) []model.Product {
	ps, _ := m.Called(ctx, limit).Get(0).([]model.Product)
	return ps
}

type StoreCatalogMock struct{ mock.Mock }

func (m *StoreCatalogMock) ListProducts(ctx context.Context, limit int) ([]model.Product, error) {
	args := m.Called(ctx, limit)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

func (m *StoreCatalogMock) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type ProductLookupMock struct{ mock.Mock }

func (m *ProductLookupMock) Get(ctx context.Context, productID string) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

// =====================
// fixtures
// =====================

func money(s string) model.Money {
	return model.NewMoney(decimal.RequireFromString(s), "USD")
}

// variantが1つだけの商品
func product(id, title, price, category string) model.Product {
	return model.Product{
		ID:       id,
		Source:   model.ProductSourceSample,
		Title:    title,
		Category: category,
		Price:    money(price),
		Variants: []model.ProductVariant{{
			ID:               id + "-v",
			Title:            "Default Title",
			Price:            money(price),
			AvailableForSale: true,
		}},
	}
}

func lineItem(p model.Product, qty int) model.CartLineItem {
	return model.CartLineItem{
		Product:      p,
		VariantID:    p.Variants[0].ID,
		VariantTitle: p.Variants[0].Title,
		Price:        p.Variants[0].Price,
		Quantity:     qty,
	}
}

func validCustomer() model.CustomerDetails {
	return model.CustomerDetails{
		FullName:   "Ada Lovelace",
		Email:      "ada@example.com",
		Phone:      "555-0100",
		Address:    "1 Analytical Way",
		City:       "London",
		PostalCode: "N1 9GU",
	}
}
