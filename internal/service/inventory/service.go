// Package inventory reserves and releases product stock.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
	productrepo "localbazaar/internal/repository/product"
)

type Service struct {
	stock  productrepo.StockRepository
	logger *zap.Logger
}

func New(stock productrepo.StockRepository, logger *zap.Logger) *Service {
	return &Service{stock: stock, logger: logging.OrNop(logger).Named("inventory")}
}

// Reserve takes quantity units of a product or fails with insufficient_stock.
func (s *Service) Reserve(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return domain.Validation(domain.CodeInvalidQuantity, "quantity must be at least 1")
	}
	remaining, err := s.stock.Reserve(ctx, productID, quantity)
	if err != nil {
		return err
	}
	s.logger.Debug("reserved stock",
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("remaining", remaining))
	return nil
}

// Release returns stock. A product that no longer exists is logged and skipped.
func (s *Service) Release(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return nil
	}
	restored, err := s.stock.Release(ctx, productID, quantity)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("release for missing product", zap.Int64("product_id", productID), zap.Int("quantity", quantity))
		return nil
	}
	if err != nil {
		return fmt.Errorf("release product %d: %w", productID, err)
	}
	s.logger.Debug("released stock",
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("stock", restored))
	return nil
}

// ReserveAll reserves every line in product id order. On the first failure
// the lines already reserved by this call are released and the error is returned.
func (s *Service) ReserveAll(ctx context.Context, items []domain.StockReservation) error {
	ordered := merge(items)
	for i, it := range ordered {
		if err := s.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
			if rerr := s.ReleaseAll(ctx, ordered[:i]); rerr != nil {
				s.logger.Error("release after failed reservation", zap.Error(rerr))
			}
			return err
		}
	}
	return nil
}

func (s *Service) ReleaseAll(ctx context.Context, items []domain.StockReservation) error {
	var errs []error
	for _, it := range merge(items) {
		if err := s.Release(ctx, it.ProductID, it.Quantity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetStock overwrites the stock level of a product.
func (s *Service) SetStock(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return domain.Validation(domain.CodeInvalidQuantity, "stock_quantity must be zero or greater")
	}
	return s.stock.SetStock(ctx, productID, quantity)
}

// merge folds duplicate products together and sorts by id so concurrent
// multi-product reservations lock rows in the same order.
func merge(items []domain.StockReservation) []domain.StockReservation {
	byID := make(map[int64]int, len(items))
	out := make([]domain.StockReservation, 0, len(items))
	for _, it := range items {
		if idx, ok := byID[it.ProductID]; ok {
			out[idx].Quantity += it.Quantity
			continue
		}
		byID[it.ProductID] = len(out)
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
