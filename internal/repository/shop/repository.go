package shop

import (
	"context"

	"localbazaar/internal/domain"
)

// ListFilter narrows shop listings.
type ListFilter struct {
	Location        string
	SellerID        *int64
	IncludeInactive bool
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Shop, error)
	GetByID(ctx context.Context, id int64) (*domain.Shop, error)
	Create(ctx context.Context, s domain.Shop) (*domain.Shop, error)
	Update(ctx context.Context, s domain.Shop) (*domain.Shop, error)
}
