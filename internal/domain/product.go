package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64
	ShopID        int64
	ShopName      string
	ShopActive    bool
	CategoryID    *int64
	CategoryName  string
	Name          string
	Description   string
	Image         string
	Price         decimal.Decimal
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Purchasable reports whether the product can be added to a cart.
func (p Product) Purchasable() bool {
	return p.IsActive && p.ShopActive
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category        string
	Search          string
	ShopID          *int64
	SellerID        *int64
	IncludeInactive bool
}

// ValidPrice reports whether d is a non-negative amount with at most two decimal places.
func ValidPrice(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(2))
}
