package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"localbazaar/internal/db"
	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
)

const selectShop = `
SELECT id, seller_id, name, description, location, phone, email, image, is_active, created_at, updated_at
FROM shops
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("shop_repo")}
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Shop, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "is_active")
	}
	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		where = append(where, fmt.Sprintf("seller_id = $%d", len(args)))
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		args = append(args, "%"+strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(loc)+"%")
		where = append(where, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	q := selectShop
	if len(where) > 0 {
		q += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	q += "ORDER BY id ASC"

	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list shops", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	return scanShop(db.Conn(ctx, r.pool).QueryRow(ctx, selectShop+"WHERE id = $1", id))
}

func (r *postgresRepo) Create(ctx context.Context, s domain.Shop) (*domain.Shop, error) {
	const q = `
INSERT INTO shops (seller_id, name, description, location, phone, email, image, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, seller_id, name, description, location, phone, email, image, is_active, created_at, updated_at
`
	out, err := scanShop(db.Conn(ctx, r.pool).QueryRow(ctx, q,
		s.SellerID, s.Name, s.Description, s.Location, s.Phone, s.Email, s.Image, s.IsActive))
	if err != nil {
		r.logger.Error("create shop", zap.Int64("seller_id", s.SellerID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("created shop", zap.Int64("shop_id", out.ID), zap.Int64("seller_id", out.SellerID))
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, s domain.Shop) (*domain.Shop, error) {
	const q = `
UPDATE shops
SET name = $2, description = $3, location = $4, phone = $5, email = $6, image = $7, is_active = $8, updated_at = now()
WHERE id = $1
RETURNING id, seller_id, name, description, location, phone, email, image, is_active, created_at, updated_at
`
	return scanShop(db.Conn(ctx, r.pool).QueryRow(ctx, q,
		s.ID, s.Name, s.Description, s.Location, s.Phone, s.Email, s.Image, s.IsActive))
}

func scanShop(row pgx.Row) (*domain.Shop, error) {
	var s domain.Shop
	err := row.Scan(&s.ID, &s.SellerID, &s.Name, &s.Description, &s.Location, &s.Phone, &s.Email, &s.Image,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
