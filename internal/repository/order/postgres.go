package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"localbazaar/internal/db"
	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
)

const selectOrder = `
SELECT o.id, o.customer_id, o.total_amount::text, o.status, o.shipping_address, o.payment_method, o.created_at, o.updated_at
FROM orders o
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	tx     *db.TxRunner
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{
		pool:   pool,
		tx:     db.NewTxRunner(pool),
		logger: logging.OrNop(logger).Named("order_repo"),
	}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if len(o.Items) == 0 {
		return nil, errors.New("order has no items")
	}
	if err := o.VerifyTotal(); err != nil {
		return nil, err
	}

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		conn := db.Conn(ctx, r.pool)
		err := conn.QueryRow(ctx, `
INSERT INTO orders (customer_id, total_amount, status, shipping_address, payment_method)
VALUES ($1, $2::numeric, $3, $4, $5)
RETURNING id, created_at, updated_at
`, o.CustomerID, o.TotalAmount.StringFixed(2), o.Status, o.ShippingAddress, o.PaymentMethod).
			Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			it := &o.Items[i]
			err := conn.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, shop_id, quantity, price)
VALUES ($1, $2, $3, $4, $5, $6::numeric)
RETURNING id
`, o.ID, it.ProductID, it.ProductName, it.ShopID, it.Quantity, it.Price.StringFixed(2)).Scan(&it.ID)
			if err != nil {
				return fmt.Errorf("insert order item product_id=%d: %w", it.ProductID, err)
			}
		}

		var stored string
		if err := conn.QueryRow(ctx, `
SELECT COALESCE(SUM(price * quantity), 0)::text FROM order_items WHERE order_id = $1
`, o.ID).Scan(&stored); err != nil {
			return fmt.Errorf("sum order items: %w", err)
		}
		sum, err := decimal.NewFromString(stored)
		if err != nil {
			return fmt.Errorf("decode order sum %q: %w", stored, err)
		}
		if !sum.Equal(o.TotalAmount) {
			return fmt.Errorf("order %d total %s does not match stored items %s", o.ID, o.TotalAmount.StringFixed(2), sum.StringFixed(2))
		}
		return nil
	})
	if err != nil {
		r.logger.Error("create order", zap.Int64("customer_id", o.CustomerID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("created order", zap.Int64("order_id", o.ID), zap.Int64("customer_id", o.CustomerID),
		zap.String("total", o.TotalAmount.StringFixed(2)))
	return &o, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getOne(ctx, selectOrder+"WHERE o.id = $1", id)
}

func (r *postgresRepo) Lock(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getOne(ctx, selectOrder+"WHERE o.id = $1\nFOR UPDATE", id)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return r.list(ctx, selectOrder+"WHERE o.customer_id = $1\nORDER BY o.id DESC", customerID)
}

func (r *postgresRepo) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Order, error) {
	q := selectOrder + `WHERE EXISTS (
    SELECT 1 FROM order_items oi JOIN shops s ON s.id = oi.shop_id
    WHERE oi.order_id = o.id AND s.seller_id = $1
)
ORDER BY o.id DESC`
	orders, err := r.list(ctx, q, sellerID)
	if err != nil {
		return nil, err
	}
	owned, err := r.sellerItemIDs(ctx, sellerID, orders)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		mine := orders[i].Items[:0:0]
		for _, it := range orders[i].Items {
			if owned[it.ID] {
				mine = append(mine, it)
			}
		}
		orders[i].Items = mine
	}
	return orders, nil
}

// sellerItemIDs returns the ids of order lines sold by sellerID's shops.
func (r *postgresRepo) sellerItemIDs(ctx context.Context, sellerID int64, orders []domain.Order) (map[int64]bool, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
SELECT oi.id
FROM order_items oi
JOIN shops s ON s.id = oi.shop_id
WHERE oi.order_id = ANY($1) AND s.seller_id = $2
`, ids, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	cmd, err := db.Conn(ctx, r.pool).Exec(ctx, `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
`, id, from, to)
	if err != nil {
		r.logger.Error("update order status", zap.Int64("order_id", id), zap.Error(err))
		return fmt.Errorf("update order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.Conflict(domain.CodeInvalidTransition,
			fmt.Sprintf("order %d is no longer %s", id, from))
	}
	r.logger.Info("order status changed", zap.Int64("order_id", id), zap.String("from", string(from)), zap.String("to", string(to)))
	return nil
}

func (r *postgresRepo) SellerHasItems(ctx context.Context, orderID, sellerID int64) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM order_items oi JOIN shops s ON s.id = oi.shop_id
    WHERE oi.order_id = $1 AND s.seller_id = $2
)`, orderID, sellerID).Scan(&ok)
	return ok, err
}

func (r *postgresRepo) SalesSummary(ctx context.Context, sellerID int64) (domain.SalesSummary, error) {
	const q = `
SELECT COUNT(DISTINCT o.id), COALESCE(SUM(oi.quantity), 0), COALESCE(SUM(oi.price * oi.quantity), 0)::text
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN shops s ON s.id = oi.shop_id
WHERE s.seller_id = $1 AND o.status <> 'cancelled'
`
	var (
		out     domain.SalesSummary
		revenue string
	)
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, q, sellerID).Scan(&out.Orders, &out.UnitsSold, &revenue); err != nil {
		return domain.SalesSummary{}, fmt.Errorf("sales summary: %w", err)
	}
	var err error
	if out.Revenue, err = decimal.NewFromString(revenue); err != nil {
		return domain.SalesSummary{}, fmt.Errorf("decode revenue %q: %w", revenue, err)
	}
	return out, nil
}

func (r *postgresRepo) getOne(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	orders, err := r.list(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	conn := db.Conn(ctx, r.pool)
	rows, err := conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var (
		orders []domain.Order
		ids    []int64
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	items, err := r.items(ctx, conn, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *postgresRepo) items(ctx context.Context, conn db.Querier, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	rows, err := conn.Query(ctx, `
SELECT order_id, id, product_id, product_name, shop_id, quantity, price::text
FROM order_items
WHERE order_id = ANY($1)
ORDER BY id ASC
`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			it      domain.OrderItem
			price   string
		)
		if err := rows.Scan(&orderID, &it.ID, &it.ProductID, &it.ProductName, &it.ShopID, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("decode item price %q: %w", price, err)
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		total string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &total, &o.Status, &o.ShippingAddress, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total %q: %w", total, err)
	}
	return &o, nil
}
