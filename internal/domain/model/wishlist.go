package model

// {items}
type WishlistState struct {
	Items []Product `json:"items"`
}

func NewWishlistState() WishlistState {
	return WishlistState{Items: []Product{}}
}

func (s WishlistState) Contains(productID string) bool {
	for _, p := range s.Items {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// 既にあれば何もしない
func (s *WishlistState) Add(p Product) {
	if s.Contains(p.ID) {
		return
	}
	s.Items = append(s.Items, p)
}

func (s *WishlistState) Remove(productID string) {
	for i, p := range s.Items {
		if p.ID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

func (s *WishlistState) Clear() {
	s.Items = []Product{}
}

func (s WishlistState) Find(productID string) (Product, bool) {
	for _, p := range s.Items {
		if p.ID == productID {
			return p, true
		}
	}
	return Product{}, false
}
