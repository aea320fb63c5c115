package backend

import (
	"encoding/json"
	"fmt"

	"shopadmin/internal/domain"
)

type Kind int

const (
	KindSingle Kind = iota
	KindList
)

// GetResponse is the get-by-id answer, which comes as {"product": {...}} or
// {"products": [...]}.
type GetResponse struct {
	Kind     Kind
	Product  domain.Product
	Products []domain.Product
}

func decodeGetResponse(raw []byte) (GetResponse, error) {
	var env struct {
		Product  *domain.Product  `json:"product"`
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return GetResponse{}, fmt.Errorf("decode product: %w", err)
	}
	if env.Product != nil {
		return GetResponse{Kind: KindSingle, Product: *env.Product}, nil
	}
	return GetResponse{Kind: KindList, Products: env.Products}, nil
}

// Resolve picks the product for id: the single product; else the list element with
// that id; else the only element of a one-item list. Anything else is ErrNotFound.
func (r GetResponse) Resolve(id string) (domain.Product, error) {
	if r.Kind == KindSingle {
		return r.Product, nil
	}
	for _, p := range r.Products {
		if p.ID == id {
			return p, nil
		}
	}
	if len(r.Products) == 1 {
		return r.Products[0], nil
	}
	return domain.Product{}, domain.ErrNotFound
}
