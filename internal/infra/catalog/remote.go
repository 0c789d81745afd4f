package catalog

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"
)

const productsQuery = `
  query GetProducts($first: Int!) {
    products(first: $first) {
      edges {
        node {
          id
          title
          description
          handle
          productType
          images(first: 5) { edges { node { url altText } } }
          variants(first: 10) {
            edges {
              node {
                id
                title
                price { amount currencyCode }
                availableForSale
                selectedOptions { name value }
              }
            }
          }
        }
      }
    }
  }
`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type remoteMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type remoteVariant struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Price            remoteMoney            `json:"price"`
	AvailableForSale bool                   `json:"availableForSale"`
	SelectedOptions  []model.SelectedOption `json:"selectedOptions"`
}

type remoteProduct struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Handle      string `json:"handle"`
	ProductType string `json:"productType"`
	Images      struct {
		Edges []struct {
			Node model.ProductImage `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node remoteVariant `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type productsResponse struct {
	Data struct {
		Products struct {
			Edges []struct {
				Node remoteProduct `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

func (r productsResponse) err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("catalog graphql: %s", strings.Join(msgs, ", "))
}

// リモートの形を正規化する。形が壊れていればエラー。
func fromRemote(rp remoteProduct) (model.Product, error) {
	if strings.TrimSpace(rp.ID) == "" {
		return model.Product{}, errors.New("missing id")
	}
	if strings.TrimSpace(rp.Title) == "" {
		return model.Product{}, fmt.Errorf("product %s: missing title", rp.ID)
	}
	if len(rp.Variants.Edges) == 0 {
		return model.Product{}, fmt.Errorf("product %s: no variants", rp.ID)
	}

	p := model.Product{
		ID:          rp.ID,
		Source:      model.ProductSourceRemote,
		Title:       rp.Title,
		Description: rp.Description,
		Handle:      rp.Handle,
		Category:    rp.ProductType,
		Images:      make([]model.ProductImage, 0, len(rp.Images.Edges)),
		Variants:    make([]model.ProductVariant, 0, len(rp.Variants.Edges)),
	}
	for _, e := range rp.Images.Edges {
		if e.Node.URL == "" {
			continue
		}
		p.Images = append(p.Images, e.Node)
	}
	for _, e := range rp.Variants.Edges {
		v := e.Node
		if v.ID == "" {
			return model.Product{}, fmt.Errorf("product %s: variant without id", rp.ID)
		}
		price, err := model.ParseMoney(v.Price.Amount, v.Price.CurrencyCode)
		if err != nil {
			return model.Product{}, fmt.Errorf("product %s variant %s: %w", rp.ID, v.ID, err)
		}
		opts := v.SelectedOptions
		if opts == nil {
			opts = []model.SelectedOption{}
		}
		p.Variants = append(p.Variants, model.ProductVariant{
			ID:               v.ID,
			Title:            v.Title,
			Price:            price,
			AvailableForSale: v.AvailableForSale,
			SelectedOptions:  opts,
		})
		if p.Price.CurrencyCode == "" || price.Amount.LessThan(p.Price.Amount) {
			p.Price = price
		}
	}
	return p, nil
}
