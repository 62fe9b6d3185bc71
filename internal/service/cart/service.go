// Package cart implements the per-customer shopping cart.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
	cartrepo "localbazaar/internal/repository/cart"
)

type Service struct {
	repo     cartrepo.Repository
	products productLookup
	logger   *zap.Logger
}

// productLookup returns products including inactive ones.
type productLookup interface {
	Lookup(ctx context.Context, id int64) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productLookup, logger *zap.Logger) *Service {
	return &Service{repo: repo, products: products, logger: logging.OrNop(logger).Named("cart")}
}

// AddItem adds quantity units of a product, summing with an existing line.
func (s *Service) AddItem(ctx context.Context, customerID, productID int64, quantity int) (*domain.PricedCart, error) {
	if quantity < 1 {
		return nil, domain.Validation(domain.CodeInvalidQuantity, "quantity must be at least 1")
	}
	if quantity > domain.MaxLineQuantity {
		return nil, tooMany()
	}
	if _, err := s.purchasable(ctx, productID); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if it, ok := current.Find(productID); ok && it.Quantity+quantity > domain.MaxLineQuantity {
		return nil, tooMany()
	}
	total, err := s.repo.AddItem(ctx, customerID, productID, quantity)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	s.logger.Debug("added item",
		zap.Int64("customer_id", customerID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", total))
	return s.Price(ctx, customerID)
}

// UpdateItem sets the quantity of a line. Zero removes it.
func (s *Service) UpdateItem(ctx context.Context, customerID, productID int64, quantity int) (*domain.PricedCart, error) {
	switch {
	case quantity < 0:
		return nil, domain.Validation(domain.CodeInvalidQuantity, "quantity must not be negative")
	case quantity == 0:
		return s.RemoveItem(ctx, customerID, productID)
	case quantity > domain.MaxLineQuantity:
		return nil, tooMany()
	}
	if _, err := s.purchasable(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, customerID, productID, quantity); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return s.Price(ctx, customerID)
}

// RemoveItem is a no-op when the product is not in the cart.
func (s *Service) RemoveItem(ctx context.Context, customerID, productID int64) (*domain.PricedCart, error) {
	if err := s.repo.RemoveItem(ctx, customerID, productID); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return s.Price(ctx, customerID)
}

func (s *Service) Clear(ctx context.Context, customerID int64) error {
	if err := s.repo.Clear(ctx, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Price values the cart at current catalog prices. Lines whose product was
// deleted or is no longer purchasable are removed from the cart and reported
// in Pruned; the remaining lines still produce a total.
func (s *Service) Price(ctx context.Context, customerID int64) (*domain.PricedCart, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s.price(ctx, c, func(productID int64) error {
		if err := s.repo.RemoveItem(ctx, customerID, productID); err != nil {
			return fmt.Errorf("prune cart item: %w", err)
		}
		return nil
	})
}

// Take empties the cart and returns it priced, for checkout. Called inside
// the checkout transaction so a concurrent checkout of the same cart finds it
// empty. Unavailable lines are dropped.
func (s *Service) Take(ctx context.Context, customerID int64) (*domain.PricedCart, error) {
	c, err := s.repo.Take(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("take cart: %w", err)
	}
	return s.price(ctx, c, func(int64) error { return nil })
}

// Restore puts a taken cart back after the checkout that took it failed.
func (s *Service) Restore(ctx context.Context, cart domain.PricedCart) error {
	c := domain.Cart{CustomerID: cart.CustomerID, Items: make([]domain.CartItem, 0, len(cart.Lines))}
	for _, l := range cart.Lines {
		c.Items = append(c.Items, domain.CartItem{ProductID: l.Product.ID, Quantity: l.Quantity, AddedAt: l.AddedAt})
	}
	if err := s.repo.Restore(ctx, c); err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	return nil
}

func (s *Service) price(ctx context.Context, c *domain.Cart, prune func(productID int64) error) (*domain.PricedCart, error) {
	out := &domain.PricedCart{
		CustomerID: c.CustomerID,
		Lines:      make([]domain.PricedLine, 0, len(c.Items)),
		Total:      decimal.Zero,
	}
	for _, it := range c.Items {
		p, err := s.products.Lookup(ctx, it.ProductID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			p = nil
		case err != nil:
			return nil, err
		}
		if p == nil || !p.Purchasable() {
			if err := prune(it.ProductID); err != nil {
				return nil, err
			}
			s.logger.Info("pruned unavailable cart item",
				zap.Int64("customer_id", c.CustomerID),
				zap.Int64("product_id", it.ProductID))
			out.Pruned = append(out.Pruned, it.ProductID)
			continue
		}
		line := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		out.Lines = append(out.Lines, domain.PricedLine{
			Product:   *p,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: line,
			AddedAt:   it.AddedAt,
		})
		out.Total = out.Total.Add(line)
	}
	out.Total = out.Total.Round(2)
	return out, nil
}

func (s *Service) purchasable(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := s.products.Lookup(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Purchasable() {
		return nil, domain.Validation(domain.CodeProductInactive, fmt.Sprintf("product %d is not available", productID))
	}
	return p, nil
}

func tooMany() error {
	return domain.Validation(domain.CodeInvalidQuantity, fmt.Sprintf("quantity per product must not exceed %d", domain.MaxLineQuantity))
}
