package cart

import (
	"context"
	"fmt"
	"sort"

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

func (r *postgresRepo) Get(ctx context.Context, customerID int64) (*domain.Cart, error) {
	const q = `
SELECT product_id, quantity, added_at
FROM cart_items
WHERE customer_id = $1
ORDER BY added_at ASC, product_id ASC
`
	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart := domain.Cart{CustomerID: customerID}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) AddItem(ctx context.Context, customerID, productID int64, quantity int) (int, error) {
	const q = `
INSERT INTO cart_items (customer_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (customer_id, product_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity
RETURNING quantity
`
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, q, customerID, productID, quantity).Scan(&total); err != nil {
		if db.IsCheckViolation(err) {
			return 0, tooMany()
		}
		return 0, err
	}
	return total, nil
}

func (r *postgresRepo) SetQuantity(ctx context.Context, customerID, productID int64, quantity int) error {
	cmd, err := db.Conn(ctx, r.pool).Exec(ctx, `
UPDATE cart_items
SET quantity = $3
WHERE customer_id = $1 AND product_id = $2
`, customerID, productID, quantity)
	if err != nil {
		if db.IsCheckViolation(err) {
			return tooMany()
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, customerID, productID int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
DELETE FROM cart_items
WHERE customer_id = $1 AND product_id = $2
`, customerID, productID)
	return err
}

func (r *postgresRepo) Clear(ctx context.Context, customerID int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID)
	return err
}

// Take deletes the customer's lines and returns them. Inside a transaction the
// row locks make a concurrent Take wait and then find nothing.
func (r *postgresRepo) Take(ctx context.Context, customerID int64) (*domain.Cart, error) {
	const q = `
DELETE FROM cart_items
WHERE customer_id = $1
RETURNING product_id, quantity, added_at
`
	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart := domain.Cart{CustomerID: customerID}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortItems(cart.Items)
	return &cart, nil
}

func (r *postgresRepo) Restore(ctx context.Context, cart domain.Cart) error {
	const q = `
INSERT INTO cart_items (customer_id, product_id, quantity, added_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (customer_id, product_id) DO NOTHING
`
	conn := db.Conn(ctx, r.pool)
	for _, it := range cart.Items {
		if _, err := conn.Exec(ctx, q, cart.CustomerID, it.ProductID, it.Quantity, it.AddedAt); err != nil {
			return err
		}
	}
	return nil
}

func tooMany() error {
	return domain.Validation(domain.CodeInvalidQuantity, fmt.Sprintf("quantity per product must not exceed %d", domain.MaxLineQuantity))
}

// sortItems orders lines by when they were first added.
func sortItems(items []domain.CartItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.AddedAt.Equal(b.AddedAt) {
			return a.AddedAt.Before(b.AddedAt)
		}
		return a.ProductID < b.ProductID
	})
}
