// Package catalog serves read-only product, shop and category browsing.
package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
	categoryrepo "localbazaar/internal/repository/category"
	productrepo "localbazaar/internal/repository/product"
	shoprepo "localbazaar/internal/repository/shop"
)

type productReader interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type shopReader interface {
	List(ctx context.Context, filter shoprepo.ListFilter) ([]domain.Shop, error)
	GetByID(ctx context.Context, id int64) (*domain.Shop, error)
}

type Service struct {
	products   productReader
	shops      shopReader
	categories categoryrepo.Repository
	logger     *zap.Logger
}

func New(products productrepo.Repository, shops shoprepo.Repository, categories categoryrepo.Repository, logger *zap.Logger) *Service {
	return &Service{
		products:   products,
		shops:      shops,
		categories: categories,
		logger:     logging.OrNop(logger).Named("catalog"),
	}
}

// ListFilter is the public subset of domain.ProductFilter.
type ListFilter struct {
	Category string
	Search   string
}

// ListProducts returns purchasable products in id order.
func (s *Service) ListProducts(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	return s.products.List(ctx, domain.ProductFilter{
		Category: strings.TrimSpace(f.Category),
		Search:   strings.TrimSpace(f.Search),
	})
}

// GetProduct hides inactive products and products of inactive shops.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Purchasable() {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Search matches q against product name, description and shop name.
// A blank query yields no results rather than the whole catalog.
func (s *Service) Search(ctx context.Context, q string) ([]domain.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Product{}, nil
	}
	products, err := s.products.List(ctx, domain.ProductFilter{Search: q})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("search", zap.String("query", q), zap.Int("results", len(products)))
	return products, nil
}

func (s *Service) ProductsByCategory(ctx context.Context, name string) ([]domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Required("category")
	}
	return s.products.List(ctx, domain.ProductFilter{Category: name})
}

// ListShops returns active shops, optionally narrowed by a location substring.
func (s *Service) ListShops(ctx context.Context, location string) ([]domain.Shop, error) {
	return s.shops.List(ctx, shoprepo.ListFilter{Location: strings.TrimSpace(location)})
}

func (s *Service) GetShop(ctx context.Context, id int64) (*domain.Shop, error) {
	shop, err := s.shops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shop.IsActive {
		return nil, domain.ErrNotFound
	}
	return shop, nil
}

// ShopProducts lists the active products of an active shop.
func (s *Service) ShopProducts(ctx context.Context, shopID int64) ([]domain.Product, error) {
	if _, err := s.GetShop(ctx, shopID); err != nil {
		return nil, err
	}
	return s.products.List(ctx, domain.ProductFilter{ShopID: &shopID})
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// Lookup returns a product regardless of its active flag.
// Callers decide what an inactive product means for them.
func (s *Service) Lookup(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("lookup product", zap.Int64("product_id", id), zap.Error(err))
	}
	return p, err
}
