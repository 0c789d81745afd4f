package usecase

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
	// 外部カタログから一度に取る件数
	remoteFetchLimit = 50
)

// 画面のカテゴリ名 -> 商品のカテゴリ
var categoryAliases = map[string]string{
	"clothes": "Clothing",
	"grocery": "Food",
}

var (
	price50  = decimal.NewFromInt(50)
	price100 = decimal.NewFromInt(100)
	price500 = decimal.NewFromInt(500)
)

type ProductUsecase struct {
	remote CatalogSource
	store  StoreCatalog
	logger *zap.Logger
}

// DI
func NewProductUsecase(remote CatalogSource, store StoreCatalog, logger *zap.Logger) *ProductUsecase {
	return &ProductUsecase{remote: remote, store: store, logger: logger}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Q        string
	Category string
	Price    string
	Sort     string
	Limit    int
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int             `json:"total"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Limit == 0 {
		in.Limit = defaultProductLimit
	}
	if in.Limit < 1 || in.Limit > maxProductLimit {
		return ProductListOutput{}, validationError("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, validationError("q too long")
	}
	switch in.Price {
	case "", "all", "under-50", "50-100", "100-500", "over-500":
	default:
		return ProductListOutput{}, validationError("invalid price range")
	}
	switch in.Sort {
	case "", "featured", "price-low", "price-high", "name":
	default:
		return ProductListOutput{}, validationError("invalid sort")
	}

	all, err := u.loadAll(ctx)
	if err != nil {
		return ProductListOutput{}, err
	}

	q := strings.ToLower(strings.TrimSpace(in.Q))
	category := resolveCategory(in.Category)

	items := make([]model.Product, 0, len(all))
	for _, p := range all {
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if !inPriceRange(p.Price.Amount, in.Price) {
			continue
		}
		items = append(items, p)
	}

	sortProducts(items, in.Sort)

	total := len(items)
	if len(items) > in.Limit {
		items = items[:in.Limit]
	}
	return ProductListOutput{Items: items, Total: total, Limit: in.Limit}, nil
}

// "store-"はDB、それ以外は取得した一覧から探す
func (u *ProductUsecase) Get(ctx context.Context, productID string) (model.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return model.Product{}, validationError("invalid product id")
	}

	if dbID, ok := model.ParseStoreProductID(productID); ok {
		p, err := u.store.GetProduct(ctx, dbID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, notFoundError("product not found")
		}
		if err != nil {
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return p, nil
	}

	for _, p := range u.remote.FetchProducts(ctx, remoteFetchLimit) {
		if p.ID == productID {
			return p, nil
		}
	}
	return model.Product{}, notFoundError("product not found")
}

// 外部(or見本)の商品とDBの商品をまとめる
func (u *ProductUsecase) loadAll(ctx context.Context) ([]model.Product, error) {
	remote := u.remote.FetchProducts(ctx, remoteFetchLimit)
	stored, err := u.store.ListProducts(ctx, maxProductLimit)
	if err != nil {
		u.logger.Error("list store products", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	all := make([]model.Product, 0, len(remote)+len(stored))
	all = append(all, remote...)
	all = append(all, stored...)
	return all, nil
}

func resolveCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" || strings.EqualFold(c, "all") {
		return ""
	}
	if alias, ok := categoryAliases[strings.ToLower(c)]; ok {
		return alias
	}
	return c
}

func inPriceRange(price decimal.Decimal, r string) bool {
	switch r {
	case "under-50":
		return price.LessThan(price50)
	case "50-100":
		return price.GreaterThanOrEqual(price50) && price.LessThan(price100)
	case "100-500":
		return price.GreaterThanOrEqual(price100) && price.LessThan(price500)
	case "over-500":
		return price.GreaterThanOrEqual(price500)
	default:
		return true
	}
}

// 同値は元の順番のまま
func sortProducts(items []model.Product, by string) {
	switch by {
	case "price-low":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Price.Amount.LessThan(items[j].Price.Amount)
		})
	case "price-high":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Price.Amount.GreaterThan(items[j].Price.Amount)
		})
	case "name":
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
		})
	}
}
