package product

import (
	"context"

	"localbazaar/internal/domain"
)

type Repository interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	LowStock(ctx context.Context, sellerID int64, threshold int) ([]domain.Product, error)
	StockRepository
}

// StockRepository adjusts stock_quantity. Every method is a single
// conditional statement, so concurrent callers serialise on the row lock.
type StockRepository interface {
	Reserve(ctx context.Context, productID int64, quantity int) (int, error)
	Release(ctx context.Context, productID int64, quantity int) (int, error)
	SetStock(ctx context.Context, productID int64, quantity int) error
}
