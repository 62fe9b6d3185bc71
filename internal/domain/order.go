package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// ParseOrderStatus validates a client supplied status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	}
	return "", Validation(CodeInvalidField, fmt.Sprintf("unknown status %q", s))
}

// CanTransition reports whether from -> to is allowed.
func (from OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (from OrderStatus) Cancellable() bool {
	return from.CanTransition(OrderStatusCancelled)
}

func (from OrderStatus) Terminal() bool {
	return len(transitions[from]) == 0
}

type Order struct {
	ID              int64
	CustomerID      int64
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	ShippingAddress string
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem freezes the unit price at purchase time.
type OrderItem struct {
	ID          int64
	ProductID   int64
	ProductName string
	ShopID      int64
	Quantity    int
	Price       decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums price*quantity over the items.
func (o Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total.Round(2)
}

// VerifyTotal fails when TotalAmount drifted from the item sum.
func (o Order) VerifyTotal() error {
	if want := o.ComputeTotal(); !o.TotalAmount.Equal(want) {
		return fmt.Errorf("order total %s does not match items %s", o.TotalAmount.StringFixed(2), want.StringFixed(2))
	}
	return nil
}

// SalesSummary aggregates a seller's non-cancelled order lines.
type SalesSummary struct {
	Orders    int
	UnitsSold int
	Revenue   decimal.Decimal
}

// StockReservation is one product/quantity pair taken from or returned to stock.
type StockReservation struct {
	ProductID int64
	Quantity  int
}
