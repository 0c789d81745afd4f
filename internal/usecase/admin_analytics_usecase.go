package usecase

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 利益は売上の30%として見積もる
var profitMargin = decimal.RequireFromString("0.30")

const analyticsMonths = 12

type MonthlyStat struct {
	Key     string          `json:"key"`
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
	Orders  int             `json:"orders"`
}

type AnalyticsOutput struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	CompletedOrders int             `json:"completed_orders"`
	TotalOrders     int             `json:"total_orders"`
	TotalProducts   int64           `json:"total_products"`
	Monthly         []MonthlyStat   `json:"monthly"`
}

type AdminAnalyticsUsecase struct {
	orders   repo.OrderRepository
	products repo.ProductRepository
	now      func() time.Time
}

func NewAdminAnalyticsUsecase(orders repo.OrderRepository, products repo.ProductRepository) *AdminAnalyticsUsecase {
	return &AdminAnalyticsUsecase{orders: orders, products: products, now: time.Now}
}

// 売上は完了した注文のみ。月別は今月を含む直近12か月。
func (u *AdminAnalyticsUsecase) Get(ctx context.Context) (AnalyticsOutput, error) {
	orders, err := u.orders.ListForAnalytics(ctx)
	if err != nil {
		return AnalyticsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	productCount, err := u.products.Count(ctx)
	if err != nil {
		return AnalyticsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := u.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(analyticsMonths - 1), 0)

	monthly := make([]MonthlyStat, analyticsMonths)
	index := make(map[string]int, analyticsMonths)
	for i := 0; i < analyticsMonths; i++ {
		m := start.AddDate(0, i, 0)
		key := m.Format("2006-01")
		monthly[i] = MonthlyStat{Key: key, Month: m.Format("Jan 2006"), Revenue: decimal.Zero, Profit: decimal.Zero}
		index[key] = i
	}

	out := AnalyticsOutput{
		TotalRevenue:  decimal.Zero,
		TotalOrders:   len(orders),
		TotalProducts: productCount,
	}
	for _, o := range orders {
		if o.Status != model.OrderStatusCompleted {
			continue
		}
		out.CompletedOrders++
		out.TotalRevenue = out.TotalRevenue.Add(o.TotalAmount)

		if i, ok := index[o.CreatedAt.UTC().Format("2006-01")]; ok {
			monthly[i].Revenue = monthly[i].Revenue.Add(o.TotalAmount)
			monthly[i].Orders++
		}
	}
	for i := range monthly {
		monthly[i].Profit = monthly[i].Revenue.Mul(profitMargin).Round(0)
	}

	out.TotalProfit = out.TotalRevenue.Mul(profitMargin).Round(2)
	out.Monthly = monthly
	return out, nil
}
