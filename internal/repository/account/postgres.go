package account

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"localbazaar/internal/db"
	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
)

const accountColumns = `id, role, username, email, password_hash, first_name, last_name, phone, address, is_active, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("account_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	const q = `
INSERT INTO accounts (role, username, email, password_hash, first_name, last_name, phone, address)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + accountColumns
	return r.scanAccount(db.Conn(ctx, r.pool).QueryRow(ctx, q,
		a.Role, a.Username, strings.ToLower(a.Email), a.PasswordHash, a.FirstName, a.LastName, a.Phone, a.Address))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, role domain.Role, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountColumns + `
FROM accounts
WHERE role = $1 AND lower(email) = lower($2)
LIMIT 1
`
	return r.scanAccount(db.Conn(ctx, r.pool).QueryRow(ctx, q, role, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`
	return r.scanAccount(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, a domain.Account) (*domain.Account, error) {
	const q = `
UPDATE accounts
SET username = $2, first_name = $3, last_name = $4, phone = $5, address = $6
WHERE id = $1
RETURNING ` + accountColumns
	return r.scanAccount(db.Conn(ctx, r.pool).QueryRow(ctx, q, a.ID, a.Username, a.FirstName, a.LastName, a.Phone, a.Address))
}

func (r *postgresRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Role, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Phone, &a.Address, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("scan account", zap.Error(err))
		return nil, err
	}
	return &a, nil
}
