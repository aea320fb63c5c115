package services

import (
	"context"

	"shopadmin/internal/backend"
	"shopadmin/internal/domain"
	"shopadmin/internal/productform"
)

// ProductAPI is the part of the backend client the dashboard uses for products.
type ProductAPI interface {
	ListProducts(ctx context.Context, token string) ([]domain.Product, error)
	GetProduct(ctx context.Context, token, id string) (backend.GetResponse, error)
	CreateProduct(ctx context.Context, token string, p productform.Payload) (string, error)
	UpdateProduct(ctx context.Context, token, id string, p productform.Payload) (string, error)
	DeleteProduct(ctx context.Context, token, id string) (string, error)
	UploadCSV(ctx context.Context, token, filename string, data []byte) (string, error)
}

type CatalogService struct {
	API ProductAPI
}

func NewCatalogService(api ProductAPI) *CatalogService {
	return &CatalogService{API: api}
}

func (s *CatalogService) List(ctx context.Context, token string) ([]domain.Product, error) {
	if token == "" {
		return nil, domain.ErrNoSession
	}
	return s.API.ListProducts(ctx, token)
}

// Get resolves a get-by-id response to the requested product.
func (s *CatalogService) Get(ctx context.Context, token, id string) (domain.Product, error) {
	if token == "" {
		return domain.Product{}, domain.ErrNoSession
	}
	res, err := s.API.GetProduct(ctx, token, id)
	if err != nil {
		return domain.Product{}, err
	}
	return res.Resolve(id)
}

func (s *CatalogService) Delete(ctx context.Context, token, id string) (string, error) {
	if token == "" {
		return "", domain.ErrNoSession
	}
	msg, err := s.API.DeleteProduct(ctx, token, id)
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Product deleted successfully!"
	}
	return msg, nil
}

// TokenFunc looks up the current token, returning domain.ErrNoSession when absent.
type TokenFunc func(ctx context.Context) (string, error)

// FormBackend connects a product form to the catalog using the token of one client.
type FormBackend struct {
	Catalog *CatalogService
	Token   TokenFunc
}

func (b FormBackend) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	tok, err := b.Token(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	return b.Catalog.Get(ctx, tok, id)
}

func (b FormBackend) CreateProduct(ctx context.Context, p productform.Payload) (string, error) {
	tok, err := b.Token(ctx)
	if err != nil {
		return "", err
	}
	return b.Catalog.API.CreateProduct(ctx, tok, p)
}

func (b FormBackend) UpdateProduct(ctx context.Context, id string, p productform.Payload) (string, error) {
	tok, err := b.Token(ctx)
	if err != nil {
		return "", err
	}
	return b.Catalog.API.UpdateProduct(ctx, tok, id, p)
}
