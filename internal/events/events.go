// Package events publishes order lifecycle notifications to a message broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"localbazaar/internal/domain"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderCancelled     Type = "order.cancelled"
	OrderStatusChanged Type = "order.status_changed"
)

// Event is the JSON payload written to the broker.
type Event struct {
	EventID     string      `json:"event_id"`
	Type        Type        `json:"type"`
	OrderID     int64       `json:"order_id"`
	CustomerID  int64       `json:"customer_id"`
	Status      string      `json:"status"`
	TotalAmount string      `json:"total_amount"`
	Items       []EventItem `json:"items"`
	RequestID   string      `json:"request_id,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

type EventItem struct {
	ProductID int64  `json:"product_id"`
	ShopID    int64  `json:"shop_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NewOrderEvent snapshots o into an event of type t.
func NewOrderEvent(t Type, o domain.Order) Event {
	items := make([]EventItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, EventItem{
			ProductID: it.ProductID,
			ShopID:    it.ShopID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	return Event{
		EventID:     uuid.NewString(),
		Type:        t,
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
		OccurredAt:  time.Now().UTC(),
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
