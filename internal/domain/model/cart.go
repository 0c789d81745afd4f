package model

import "github.com/shopspring/decimal"

// カートの1行。variant IDが識別子。
type CartLineItem struct {
	Product         Product          `json:"product"`
	VariantID       string           `json:"variantId"`
	VariantTitle    string           `json:"variantTitle"`
	Price           Money            `json:"price"`
	Quantity        int              `json:"quantity"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
}

func (li CartLineItem) LineTotal() decimal.Decimal {
	return li.Price.Amount.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// 永続化されるカートの状態
// {items, couponCode, discount}
type CartState struct {
	Items      []CartLineItem `json:"items"`
	CouponCode string         `json:"couponCode"`
	Discount   int            `json:"discount"`
}

func NewCartState() CartState {
	return CartState{Items: []CartLineItem{}}
}

func (s *CartState) indexOf(variantID string) int {
	for i := range s.Items {
		if s.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// 同じvariantがあれば数量を足す。なければ末尾に追加。
func (s *CartState) AddItem(item CartLineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := s.indexOf(item.VariantID); i >= 0 {
		s.Items[i].Quantity += item.Quantity
		return
	}
	s.Items = append(s.Items, item)
}

// 0以下なら削除
func (s *CartState) UpdateQuantity(variantID string, qty int) {
	i := s.indexOf(variantID)
	if i < 0 {
		return
	}
	if qty <= 0 {
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
		return
	}
	s.Items[i].Quantity = qty
}

func (s *CartState) RemoveItem(variantID string) {
	s.UpdateQuantity(variantID, 0)
}

// クーポンは常に1つ。前のものを置き換える。
func (s *CartState) SetCoupon(code string, percent int) {
	s.CouponCode = code
	s.Discount = percent
}

func (s *CartState) ClearCoupon() {
	s.CouponCode = ""
	s.Discount = 0
}

func (s *CartState) Clear() {
	s.Items = []CartLineItem{}
	s.ClearCoupon()
}

func (s CartState) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range s.Items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}

func (s CartState) DiscountAmount() decimal.Decimal {
	return s.Subtotal().Mul(decimal.NewFromInt(int64(s.Discount))).Div(decimal.NewFromInt(100))
}

func (s CartState) Total() decimal.Decimal {
	return s.Subtotal().Sub(s.DiscountAmount())
}

func (s CartState) TotalQuantity() int {
	n := 0
	for _, li := range s.Items {
		n += li.Quantity
	}
	return n
}

// 先頭行の通貨。通貨が混在しても揃えない。
func (s CartState) Currency(fallback string) string {
	if len(s.Items) == 0 || s.Items[0].Price.CurrencyCode == "" {
		return fallback
	}
	return s.Items[0].Price.CurrencyCode
}

func (s CartState) IsEmpty() bool {
	return len(s.Items) == 0
}

// 深いコピー（スナップショット用）
func (s CartState) Clone() CartState {
	out := CartState{CouponCode: s.CouponCode, Discount: s.Discount}
	out.Items = make([]CartLineItem, len(s.Items))
	copy(out.Items, s.Items)
	return out
}

// カートの集計
type CartTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	TotalQuantity  int             `json:"total_quantity"`
}

func (s CartState) Totals(fallbackCurrency string) CartTotals {
	return CartTotals{
		Subtotal:       s.Subtotal(),
		DiscountAmount: s.DiscountAmount(),
		Total:          s.Total(),
		Currency:       s.Currency(fallbackCurrency),
		TotalQuantity:  s.TotalQuantity(),
	}
}
