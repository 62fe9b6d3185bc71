package order

import (
	"context"

	"localbazaar/internal/domain"
)

type Repository interface {
	// Create persists the order and its items. The total is re-verified
	// against the items and the call fails on mismatch.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// Lock loads the order with a row lock; it must run inside a transaction.
	Lock(ctx context.Context, id int64) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
	// ListBySeller returns orders holding at least one of the seller's lines,
	// with Items narrowed to those lines. TotalAmount stays the order total.
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Order, error)
	// UpdateStatus moves from -> to and fails with a conflict when the
	// stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
	SellerHasItems(ctx context.Context, orderID, sellerID int64) (bool, error)
	SalesSummary(ctx context.Context, sellerID int64) (domain.SalesSummary, error)
}
