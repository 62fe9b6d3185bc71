package cart

import (
	"context"

	"localbazaar/internal/domain"
)

// Repository stores one cart per customer. Quantity writes are atomic per
// customer/product pair; concurrent updates resolve last-writer-wins.
type Repository interface {
	// Get returns the customer's cart, empty when nothing was added yet.
	Get(ctx context.Context, customerID int64) (*domain.Cart, error)
	// AddItem adds quantity to the line, creating it if needed, and returns the new quantity.
	AddItem(ctx context.Context, customerID, productID int64, quantity int) (int, error)
	// SetQuantity overwrites an existing line; domain.ErrNotFound when absent.
	SetQuantity(ctx context.Context, customerID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, customerID, productID int64) error
	Clear(ctx context.Context, customerID int64) error
	// Take removes and returns the whole cart in one atomic step. Of two
	// concurrent calls for the same customer only one sees the items.
	Take(ctx context.Context, customerID int64) (*domain.Cart, error)
	// Restore puts lines back after a failed checkout. Lines already present
	// are left untouched.
	Restore(ctx context.Context, cart domain.Cart) error
}
