package category

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"localbazaar/internal/db"
	"localbazaar/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id, name, description, image, created_at
FROM categories
ORDER BY name ASC
`
	rows, err := db.Conn(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	const q = `
SELECT id, name, description, image, created_at
FROM categories
WHERE lower(name) = lower($1)
`
	var c domain.Category
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q, name).Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, description, image)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE
SET description = COALESCE(NULLIF(EXCLUDED.description, ''), categories.description),
    image = COALESCE(NULLIF(EXCLUDED.image, ''), categories.image)
RETURNING id, name, description, image, created_at
`
	var out domain.Category
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q, c.Name, c.Description, c.Image).
		Scan(&out.ID, &out.Name, &out.Description, &out.Image, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
