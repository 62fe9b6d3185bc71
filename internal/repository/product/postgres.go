package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"localbazaar/internal/db"
	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
)

const selectProduct = `
SELECT p.id, p.shop_id, s.name, s.is_active, p.category_id, COALESCE(c.name, ''), p.name, p.description, p.image,
       p.price::text, p.stock_quantity, p.is_active, p.created_at, p.updated_at
FROM products p
JOIN shops s ON s.id = p.shop_id
LEFT JOIN categories c ON c.id = p.category_id
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

func (r *postgresRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !filter.IncludeInactive {
		where = append(where, "p.is_active", "s.is_active")
	}
	if filter.ShopID != nil {
		where = append(where, "p.shop_id = "+arg(*filter.ShopID))
	}
	if filter.SellerID != nil {
		where = append(where, "s.seller_id = "+arg(*filter.SellerID))
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		where = append(where, "c.name ILIKE "+arg(likePattern(c)))
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		ph := arg(likePattern(q))
		where = append(where, fmt.Sprintf("(p.name ILIKE %[1]s OR p.description ILIKE %[1]s OR s.name ILIKE %[1]s)", ph))
	}

	q := selectProduct
	if len(where) > 0 {
		q += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	q += "ORDER BY p.id ASC"

	products, err := r.query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list products", zap.Any("filter", filter), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list products", zap.Int("count", len(products)))
	return products, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(db.Conn(ctx, r.pool).QueryRow(ctx, selectProduct+"WHERE p.id = $1", id))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Error("get product", zap.Int64("product_id", id), zap.Error(err))
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (shop_id, category_id, name, description, image, price, stock_quantity, is_active)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
RETURNING id
`
	var id int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, q,
		p.ShopID, p.CategoryID, p.Name, p.Description, p.Image, p.Price.StringFixed(2), p.StockQuantity, p.IsActive,
	).Scan(&id)
	if err != nil {
		r.logger.Error("create product", zap.Int64("shop_id", p.ShopID), zap.String("name", p.Name), zap.Error(err))
		return nil, fmt.Errorf("insert product: %w", err)
	}
	r.logger.Debug("created product", zap.Int64("product_id", id), zap.Int64("shop_id", p.ShopID))
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET category_id = $2, name = $3, description = $4, image = $5, price = $6::numeric, is_active = $7, updated_at = now()
WHERE id = $1
`
	cmd, err := db.Conn(ctx, r.pool).Exec(ctx, q, p.ID, p.CategoryID, p.Name, p.Description, p.Image, p.Price.StringFixed(2), p.IsActive)
	if err != nil {
		r.logger.Error("update product", zap.Int64("product_id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, p.ID)
}

func (r *postgresRepo) LowStock(ctx context.Context, sellerID int64, threshold int) ([]domain.Product, error) {
	q := selectProduct + `WHERE s.seller_id = $1 AND p.stock_quantity <= $2
ORDER BY p.stock_quantity ASC, p.id ASC`
	return r.query(ctx, q, sellerID, threshold)
}

func (r *postgresRepo) Reserve(ctx context.Context, productID int64, quantity int) (int, error) {
	const q = `
UPDATE products
SET stock_quantity = stock_quantity - $2, updated_at = now()
WHERE id = $1 AND stock_quantity >= $2
RETURNING stock_quantity
`
	conn := db.Conn(ctx, r.pool)
	var remaining int
	err := conn.QueryRow(ctx, q, productID, quantity).Scan(&remaining)
	if err == nil {
		r.logger.Debug("reserved stock", zap.Int64("product_id", productID), zap.Int("quantity", quantity), zap.Int("remaining", remaining))
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("reserve stock", zap.Int64("product_id", productID), zap.Error(err))
		return 0, fmt.Errorf("reserve stock: %w", err)
	}

	var available int
	if err := conn.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("read stock: %w", err)
	}
	return available, domain.Conflict(domain.CodeInsufficientStock,
		fmt.Sprintf("product %d has %d in stock, %d requested", productID, available, quantity))
}

func (r *postgresRepo) Release(ctx context.Context, productID int64, quantity int) (int, error) {
	const q = `
UPDATE products
SET stock_quantity = stock_quantity + $2, updated_at = now()
WHERE id = $1
RETURNING stock_quantity
`
	var restored int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, q, productID, quantity).Scan(&restored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		r.logger.Error("release stock", zap.Int64("product_id", productID), zap.Error(err))
		return 0, fmt.Errorf("release stock: %w", err)
	}
	r.logger.Debug("released stock", zap.Int64("product_id", productID), zap.Int("quantity", quantity), zap.Int("stock", restored))
	return restored, nil
}

func (r *postgresRepo) SetStock(ctx context.Context, productID int64, quantity int) error {
	cmd, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE products SET stock_quantity = $2, updated_at = now() WHERE id = $1`, productID, quantity)
	if err != nil {
		if db.IsCheckViolation(err) {
			return domain.Validation(domain.CodeInvalidQuantity, "stock quantity must not be negative")
		}
		return fmt.Errorf("set stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := row.Scan(&p.ID, &p.ShopID, &p.ShopName, &p.ShopActive, &p.CategoryID, &p.CategoryName, &p.Name,
		&p.Description, &p.Image, &price, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("decode price %q: %w", price, err)
	}
	return &p, nil
}

// likePattern escapes LIKE metacharacters and wraps s for substring matching.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
