// Package seller manages a seller's shops, products, stock and sales figures.
package seller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"localbazaar/internal/domain"
	"localbazaar/internal/importer"
	"localbazaar/internal/logging"
	categoryrepo "localbazaar/internal/repository/category"
	productrepo "localbazaar/internal/repository/product"
	shoprepo "localbazaar/internal/repository/shop"
)

type stockSetter interface {
	SetStock(ctx context.Context, productID int64, quantity int) error
}

type salesReporter interface {
	SalesSummary(ctx context.Context, sellerID int64) (domain.SalesSummary, error)
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	shops             shoprepo.Repository
	products          productrepo.Repository
	categories        categoryrepo.Repository
	stock             stockSetter
	sales             salesReporter
	tx                txRunner
	lowStockThreshold int
	logger            *zap.Logger
}

type Deps struct {
	Shops      shoprepo.Repository
	Products   productrepo.Repository
	Categories categoryrepo.Repository
	Stock      stockSetter
	Sales      salesReporter
	Tx         txRunner
	// LowStockThreshold is used when a low-stock query gives none.
	LowStockThreshold int
}

func New(deps Deps, logger *zap.Logger) *Service {
	return &Service{
		shops:             deps.Shops,
		products:          deps.Products,
		categories:        deps.Categories,
		stock:             deps.Stock,
		sales:             deps.Sales,
		tx:                deps.Tx,
		lowStockThreshold: deps.LowStockThreshold,
		logger:            logging.OrNop(logger).Named("seller"),
	}
}

type ShopInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Image       string `json:"image"`
}

// ShopPatch holds optional shop changes.
type ShopPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"is_active"`
}

func (s *Service) CreateShop(ctx context.Context, sellerID int64, in ShopInput) (*domain.Shop, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Required("name")
	}
	shop, err := s.shops.Create(ctx, domain.Shop{
		SellerID:    sellerID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.TrimSpace(in.Email),
		Image:       strings.TrimSpace(in.Image),
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("created shop", zap.Int64("shop_id", shop.ID), zap.Int64("seller_id", sellerID))
	return shop, nil
}

func (s *Service) UpdateShop(ctx context.Context, sellerID, shopID int64, in ShopPatch) (*domain.Shop, error) {
	shop, err := s.ownShop(ctx, sellerID, shopID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Required("name")
		}
		shop.Name = name
	}
	setString(&shop.Description, in.Description)
	setString(&shop.Location, in.Location)
	setString(&shop.Phone, in.Phone)
	setString(&shop.Email, in.Email)
	setString(&shop.Image, in.Image)
	if in.IsActive != nil {
		shop.IsActive = *in.IsActive
	}
	return s.shops.Update(ctx, *shop)
}

func (s *Service) ListShops(ctx context.Context, sellerID int64) ([]domain.Shop, error) {
	return s.shops.List(ctx, shoprepo.ListFilter{SellerID: &sellerID, IncludeInactive: true})
}

type ProductInput struct {
	ShopID        int64
	Category      string
	Name          string
	Description   string
	Image         string
	Price         decimal.Decimal
	StockQuantity int
	IsActive      *bool
}

// ProductPatch holds optional product changes. Stock is changed through SetStock.
type ProductPatch struct {
	Category    *string
	Name        *string
	Description *string
	Image       *string
	Price       *decimal.Decimal
	IsActive    *bool
}

func (s *Service) CreateProduct(ctx context.Context, sellerID int64, in ProductInput) (*domain.Product, error) {
	if _, err := s.ownShop(ctx, sellerID, in.ShopID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Required("name")
	}
	if !domain.ValidPrice(in.Price) {
		return nil, domain.Validation(domain.CodeInvalidField, "price must be non-negative with at most 2 decimal places")
	}
	if in.StockQuantity < 0 {
		return nil, domain.Validation(domain.CodeInvalidQuantity, "stock_quantity must be zero or greater")
	}
	p := domain.Product{
		ShopID:        in.ShopID,
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Image:         strings.TrimSpace(in.Image),
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		IsActive:      in.IsActive == nil || *in.IsActive,
	}
	categoryID, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	p.CategoryID = categoryID

	created, err := s.products.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created product", zap.Int64("product_id", created.ID), zap.Int64("shop_id", created.ShopID))
	return created, nil
}

// UpdateProduct changes catalog fields. Price changes never touch existing orders.
func (s *Service) UpdateProduct(ctx context.Context, sellerID, productID int64, in ProductPatch) (*domain.Product, error) {
	p, err := s.ownProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Required("name")
		}
		p.Name = name
	}
	setString(&p.Description, in.Description)
	setString(&p.Image, in.Image)
	if in.Price != nil {
		if !domain.ValidPrice(*in.Price) {
			return nil, domain.Validation(domain.CodeInvalidField, "price must be non-negative with at most 2 decimal places")
		}
		p.Price = *in.Price
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Category != nil {
		categoryID, err := s.resolveCategory(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		p.CategoryID = categoryID
	}
	return s.products.Update(ctx, *p)
}

// ListProducts includes inactive products and products of inactive shops.
func (s *Service) ListProducts(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	return s.products.List(ctx, domain.ProductFilter{SellerID: &sellerID, IncludeInactive: true})
}

// SetStock overwrites the stock of one of the seller's products.
func (s *Service) SetStock(ctx context.Context, sellerID, productID int64, quantity int) (*domain.Product, error) {
	if _, err := s.ownProduct(ctx, sellerID, productID); err != nil {
		return nil, err
	}
	if err := s.stock.SetStock(ctx, productID, quantity); err != nil {
		return nil, err
	}
	s.logger.Info("stock set", zap.Int64("product_id", productID), zap.Int("quantity", quantity))
	return s.products.GetByID(ctx, productID)
}

// LowStock lists products at or below threshold. A negative threshold uses the configured default.
func (s *Service) LowStock(ctx context.Context, sellerID int64, threshold int) ([]domain.Product, error) {
	if threshold < 0 {
		threshold = s.lowStockThreshold
	}
	return s.products.LowStock(ctx, sellerID, threshold)
}

// BulkUpload imports a CSV of products into one of the seller's shops in a single transaction.
func (s *Service) BulkUpload(ctx context.Context, sellerID, shopID int64, r io.Reader) ([]domain.Product, error) {
	if _, err := s.ownShop(ctx, sellerID, shopID); err != nil {
		return nil, err
	}
	var created []domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = importer.NewCSVImporter(r, s.products, s.categories, shopID, s.logger).Run(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) Sales(ctx context.Context, sellerID int64) (domain.SalesSummary, error) {
	return s.sales.SalesSummary(ctx, sellerID)
}

func (s *Service) ownShop(ctx context.Context, sellerID, shopID int64) (*domain.Shop, error) {
	if shopID == 0 {
		return nil, domain.Required("shop_id")
	}
	shop, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}
	return shop, nil
}

func (s *Service) ownProduct(ctx context.Context, sellerID, productID int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownShop(ctx, sellerID, p.ShopID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("shop of product %d: %w", productID, err)
		}
		return nil, err
	}
	return p, nil
}

// resolveCategory returns nil for a blank name and creates unknown categories.
func (s *Service) resolveCategory(ctx context.Context, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	c, err := s.categories.GetByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		c, err = s.categories.Upsert(ctx, domain.Category{Name: name})
	}
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
