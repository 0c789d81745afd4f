package catalog

import (
	"fmt"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type sampleRow struct {
	title, description, handle, category, price, image string
}

var sampleRows = []sampleRow{
	{"Premium Coffee Beans", "Rich, aromatic coffee beans sourced from the finest plantations. Perfect for your morning brew.", "premium-coffee-beans", "Food", "24.99", "/assets/products/coffee-beans.jpg"},
	{"Cotton T-Shirt", "Comfortable 100% cotton t-shirt with a classic fit. Available in multiple colors.", "cotton-t-shirt", "Clothing", "19.99", "/assets/products/cotton-tshirt.jpg"},
	{"Designer Hoodie", "Premium designer hoodie with unique patterns. Made from high-quality materials.", "designer-hoodie", "Clothing", "89.99", "/assets/products/designer-hoodie.jpg"},
	{"Grain Bread", "Freshly baked whole grain bread made with organic ingredients. Perfect for healthy meals.", "grain-bread", "Food", "5.99", "/assets/products/grain-bread.jpg"},
	{"iPhone 15 Pro", "Latest iPhone 15 Pro with advanced features and stunning camera capabilities.", "iphone-15-pro", "Mobile", "999.99", "/assets/products/iphone-15-pro.jpg"},
	{"Organic Bananas", "Fresh organic bananas packed with nutrients. Perfect for smoothies and snacks.", "organic-bananas", "Food", "3.99", "/assets/products/organic-bananas.jpg"},
	{"Samsung S24", "Samsung Galaxy S24 with cutting-edge technology and exceptional performance.", "samsung-s24", "Mobile", "799.99", "/assets/products/samsung-s24.jpg"},
	{"Slim Jeans", "Modern slim-fit jeans made from premium denim. Comfortable and stylish.", "slim-jeans", "Clothing", "79.99", "/assets/products/slim-jeans.jpg"},
	{"Wireless Headphones", "High-quality wireless headphones with noise cancellation and premium sound.", "wireless-headphones", "Electronics", "199.99", "/assets/products/wireless-headphones.jpg"},
}

// リモートが使えない時の見本商品。注文明細には残らない。
func SampleProducts() []model.Product {
	out := make([]model.Product, 0, len(sampleRows))
	for i, r := range sampleRows {
		price := model.NewMoney(decimal.RequireFromString(r.price), model.DefaultCurrency)
		out = append(out, model.Product{
			ID:          fmt.Sprintf("sample-%d", i+1),
			Source:      model.ProductSourceSample,
			Title:       r.title,
			Description: r.description,
			Handle:      r.handle,
			Category:    r.category,
			Price:       price,
			Images:      []model.ProductImage{{URL: r.image, AltText: r.title}},
			Variants: []model.ProductVariant{{
				ID:               fmt.Sprintf("sample-variant-%d", i+1),
				Title:            "Default Title",
				Price:            price,
				AvailableForSale: true,
				SelectedOptions:  []model.SelectedOption{},
			}},
		})
	}
	return out
}
