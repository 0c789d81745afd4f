package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品の出どころ
type ProductSource string

const (
	ProductSourceRemote ProductSource = "remote"
	ProductSourceStore  ProductSource = "store"
	ProductSourceSample ProductSource = "sample"
)

// 自前DBの商品IDの接頭辞
const StoreProductPrefix = "store-"

type ProductImage struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ProductVariant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            Money            `json:"price"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
}

// 正規化済みの商品。取得後は変更しない。
type Product struct {
	ID          string           `json:"id"`
	Source      ProductSource    `json:"source"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Handle      string           `json:"handle"`
	Category    string           `json:"category"`
	Price       Money            `json:"price"`
	Images      []ProductImage   `json:"images"`
	Variants    []ProductVariant `json:"variants"`
}

func (p Product) FindVariant(variantID string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// 購入可能な最初のvariant
func (p Product) FirstAvailableVariant() (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.AvailableForSale {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// DB由来の商品か
func (p Product) IsStoreProduct() bool {
	_, ok := ParseStoreProductID(p.ID)
	return ok
}

func StoreProductID(id int64) string {
	return StoreProductPrefix + strconv.FormatInt(id, 10)
}

// "store-12" -> 12
func ParseStoreProductID(id string) (int64, bool) {
	if !strings.HasPrefix(id, StoreProductPrefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, StoreProductPrefix), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// DBに保存する商品（管理画面で登録する）
type ProductRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Stock       int64           `gorm:"not null" json:"stock"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	ImageURLs   StringList      `gorm:"type:text" json:"image_urls"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (ProductRecord) TableName() string { return "products" }

// textカラムにJSON配列として保存する
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}
}
