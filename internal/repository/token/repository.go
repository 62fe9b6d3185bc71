package token

import (
	"context"
	"time"

	"localbazaar/internal/domain"
)

type Token struct {
	Token     string
	AccountID int64
	Role      domain.Role
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
