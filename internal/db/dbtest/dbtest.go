// Package dbtest provides a migrated Postgres pool for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"localbazaar/internal/migrate"
)

// Pool connects to TEST_DB_DSN, migrates and truncates every table.
// The test is skipped when TEST_DB_DSN is unset.
func Pool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, cart_items, products, shops, categories, tokens, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

// Seller inserts a seller account and returns its id.
func Seller(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) int64 {
	t.Helper()
	return account(ctx, t, pool, "seller", email)
}

// Customer inserts a customer account and returns its id.
func Customer(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) int64 {
	t.Helper()
	return account(ctx, t, pool, "customer", email)
}

func account(ctx context.Context, t *testing.T, pool *pgxpool.Pool, role, email string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO accounts (role, username, email, password_hash) VALUES ($1, $2, $2, 'x') RETURNING id`,
		role, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert %s: %v", role, err)
	}
	return id
}

// Shop inserts an active shop for sellerID.
func Shop(ctx context.Context, t *testing.T, pool *pgxpool.Pool, sellerID int64, name string) int64 {
	t.Helper()
	var id int64
	if err := pool.QueryRow(ctx, `INSERT INTO shops (seller_id, name) VALUES ($1, $2) RETURNING id`, sellerID, name).Scan(&id); err != nil {
		t.Fatalf("insert shop: %v", err)
	}
	return id
}

// Product inserts a product with the given price and stock.
func Product(ctx context.Context, t *testing.T, pool *pgxpool.Pool, shopID int64, name, desc, price string, stock int, active bool) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(ctx, `
INSERT INTO products (shop_id, name, description, price, stock_quantity, is_active)
VALUES ($1, $2, $3, $4::numeric, $5, $6)
RETURNING id`, shopID, name, desc, price, stock, active).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}
