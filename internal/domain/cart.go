package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity bounds the quantity of a single cart line.
const MaxLineQuantity = 9999

// Cart is the pending selection of a single customer.
type Cart struct {
	CustomerID int64
	Items      []CartItem
}

type CartItem struct {
	ProductID int64
	Quantity  int
	AddedAt   time.Time
}

// Find returns the item for productID, if present.
func (c Cart) Find(productID int64) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// PricedCart is a cart valued at current catalog prices.
type PricedCart struct {
	CustomerID int64
	Lines      []PricedLine
	Total      decimal.Decimal
	// Pruned lists products dropped because they no longer exist or were deactivated.
	Pruned []int64
}

type PricedLine struct {
	Product   Product
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	AddedAt   time.Time
}

func (c PricedCart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}
