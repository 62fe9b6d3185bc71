package account

import (
	"context"

	"localbazaar/internal/domain"
)

// Repository persists and fetches customer and seller accounts.
type Repository interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByEmail(ctx context.Context, role domain.Role, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	UpdateProfile(ctx context.Context, a domain.Account) (*domain.Account, error)
}
