// Package seed loads demo marketplace data for manual testing.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"localbazaar/internal/db"
	"localbazaar/internal/logging"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "bazaar-demo"

type accountSeed struct {
	Role     string
	Username string
	Email    string
	Address  string
}

type shopSeed struct {
	Name        string
	Description string
	Location    string
	Products    []productSeed
}

type productSeed struct {
	Name        string
	Description string
	Category    string
	Price       string
	Stock       int
}

var (
	demoSeller   = accountSeed{Role: "seller", Username: "demo-seller", Email: "seller@localbazaar.test"}
	demoCustomer = accountSeed{Role: "customer", Username: "demo-customer", Email: "customer@localbazaar.test", Address: "1 Market Square"}

	demoCategories = []string{"Crafts", "Food", "Clothing"}

	demoShops = []shopSeed{
		{
			Name:        "Riverside Pottery",
			Description: "Stoneware thrown by hand on the riverbank",
			Location:    "Old Town",
			Products: []productSeed{
				{Name: "Clay Mug", Description: "Glazed stoneware mug, 350ml", Category: "Crafts", Price: "12.50", Stock: 24},
				{Name: "Serving Bowl", Description: "Wide bowl with speckled glaze", Category: "Crafts", Price: "34.00", Stock: 6},
			},
		},
		{
			Name:        "Hilltop Apiary",
			Description: "Honey and beeswax from local hives",
			Location:    "North Hills",
			Products: []productSeed{
				{Name: "Wildflower Honey", Description: "Raw honey, 450g jar", Category: "Food", Price: "8.99", Stock: 40},
				{Name: "Beeswax Candle", Description: "Hand dipped taper pair", Category: "Crafts", Price: "6.00", Stock: 3},
				{Name: "Knitted Beanie", Description: "Merino wool, one size", Category: "Clothing", Price: "19.99", Stock: 12},
			},
		},
	}
)

// Apply inserts basic seed data for manual testing. Re-running it updates
// prices and descriptions but never duplicates rows or resets stock.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	logger = logging.OrNop(logger).Named("seed")
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return db.NewTxRunner(pool).WithinTx(ctx, func(ctx context.Context) error {
		conn := db.Conn(ctx, pool)

		sellerID, err := ensureAccount(ctx, conn, demoSeller, string(hash))
		if err != nil {
			return fmt.Errorf("ensure seller: %w", err)
		}
		if _, err := ensureAccount(ctx, conn, demoCustomer, string(hash)); err != nil {
			return fmt.Errorf("ensure customer: %w", err)
		}

		categories := make(map[string]int64, len(demoCategories))
		for _, name := range demoCategories {
			id, err := ensureCategory(ctx, conn, name)
			if err != nil {
				return fmt.Errorf("ensure category %s: %w", name, err)
			}
			categories[name] = id
		}

		for _, s := range demoShops {
			shopID, err := ensureShop(ctx, conn, sellerID, s)
			if err != nil {
				return fmt.Errorf("ensure shop %s: %w", s.Name, err)
			}
			for _, p := range s.Products {
				if err := upsertProduct(ctx, conn, shopID, categories[p.Category], p); err != nil {
					return fmt.Errorf("upsert product %s: %w", p.Name, err)
				}
			}
		}
		logger.Info("seeded demo data",
			zap.String("seller", demoSeller.Email),
			zap.String("customer", demoCustomer.Email),
			zap.Int("shops", len(demoShops)))
		return nil
	})
}

func ensureAccount(ctx context.Context, conn db.Querier, a accountSeed, hash string) (int64, error) {
	const q = `
INSERT INTO accounts (role, username, email, password_hash, address)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (role, lower(email)) DO UPDATE SET username = EXCLUDED.username
RETURNING id
`
	var id int64
	if err := conn.QueryRow(ctx, q, a.Role, a.Username, a.Email, hash, a.Address).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureCategory(ctx context.Context, conn db.Querier, name string) (int64, error) {
	const q = `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`
	var id int64
	if err := conn.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureShop(ctx context.Context, conn db.Querier, sellerID int64, s shopSeed) (int64, error) {
	const update = `
UPDATE shops SET description = $3, location = $4, updated_at = now()
WHERE seller_id = $1 AND name = $2
RETURNING id
`
	const insert = `
INSERT INTO shops (seller_id, name, description, location)
VALUES ($1, $2, $3, $4)
RETURNING id
`
	var id int64
	err := conn.QueryRow(ctx, update, sellerID, s.Name, s.Description, s.Location).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = conn.QueryRow(ctx, insert, sellerID, s.Name, s.Description, s.Location).Scan(&id)
	}
	return id, err
}

// upsertProduct leaves stock alone on existing rows.
func upsertProduct(ctx context.Context, conn db.Querier, shopID, categoryID int64, p productSeed) error {
	const update = `
UPDATE products SET description = $3, price = $4::numeric, category_id = $5, updated_at = now()
WHERE shop_id = $1 AND name = $2
RETURNING id
`
	const insert = `
INSERT INTO products (shop_id, name, description, price, category_id, stock_quantity)
VALUES ($1, $2, $3, $4::numeric, $5, $6)
RETURNING id
`
	var id int64
	err := conn.QueryRow(ctx, update, shopID, p.Name, p.Description, p.Price, categoryID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = conn.QueryRow(ctx, insert, shopID, p.Name, p.Description, p.Price, categoryID, p.Stock).Scan(&id)
	}
	return err
}
