package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// DBの商品レコードを正規化する。variantは1つ。
func FromRecord(rec model.ProductRecord) (model.Product, error) {
	if rec.ID <= 0 {
		return model.Product{}, errors.New("record without id")
	}
	if strings.TrimSpace(rec.Name) == "" {
		return model.Product{}, fmt.Errorf("record %d: missing name", rec.ID)
	}
	if rec.Price.IsNegative() {
		return model.Product{}, fmt.Errorf("record %d: negative price", rec.ID)
	}

	id := model.StoreProductID(rec.ID)
	currency := rec.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	price := model.NewMoney(rec.Price, currency)

	images := make([]model.ProductImage, 0, len(rec.ImageURLs))
	for _, u := range rec.ImageURLs {
		images = append(images, model.ProductImage{URL: u, AltText: rec.Name})
	}

	return model.Product{
		ID:          id,
		Source:      model.ProductSourceStore,
		Title:       rec.Name,
		Description: rec.Description,
		Handle:      id,
		Category:    rec.Category,
		Price:       price,
		Images:      images,
		Variants: []model.ProductVariant{{
			ID:               id + "-default",
			Title:            "Default Title",
			Price:            price,
			AvailableForSale: rec.IsActive && rec.Stock > 0,
			SelectedOptions:  []model.SelectedOption{},
		}},
	}, nil
}

// 自前DBの商品をProductとして読む
type StoreCatalog struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewStoreCatalog(products repository.ProductRepository, logger *zap.Logger) *StoreCatalog {
	return &StoreCatalog{products: products, logger: logger}
}

// 公開中の商品。変換できないレコードは飛ばす。
func (s *StoreCatalog) ListProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	recs, _, err := s.products.ListPublic(ctx, repository.ProductListQuery{Page: 1, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list store products: %w", err)
	}
	out := make([]model.Product, 0, len(recs))
	for _, rec := range recs {
		p, err := FromRecord(rec)
		if err != nil {
			s.logger.Warn("skip invalid store product", zap.Int64("product_id", rec.ID), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// 非公開の商品もErrNotFound
func (s *StoreCatalog) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	rec, err := s.products.FindByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	if !rec.IsActive {
		return model.Product{}, repository.ErrNotFound
	}
	return FromRecord(rec)
}
