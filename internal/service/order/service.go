// Package order runs checkout and the order status lifecycle.
package order

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"localbazaar/internal/domain"
	"localbazaar/internal/events"
	"localbazaar/internal/logging"
	orderrepo "localbazaar/internal/repository/order"
)

type cartStore interface {
	Take(ctx context.Context, customerID int64) (*domain.PricedCart, error)
	Restore(ctx context.Context, cart domain.PricedCart) error
}

type stockAdjuster interface {
	ReserveAll(ctx context.Context, items []domain.StockReservation) error
	ReleaseAll(ctx context.Context, items []domain.StockReservation) error
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	orders orderrepo.Repository
	carts  cartStore
	stock  stockAdjuster
	tx     txRunner
	events events.Publisher
	logger *zap.Logger
}

// New wires the order engine. A nil publisher drops events.
func New(orders orderrepo.Repository, carts cartStore, stock stockAdjuster, tx txRunner, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		orders: orders,
		carts:  carts,
		stock:  stock,
		tx:     tx,
		events: publisher,
		logger: logging.OrNop(logger).Named("order"),
	}
}

type CheckoutInput struct {
	ShippingAddress string
	PaymentMethod   string
}

// Checkout turns the customer's cart into a pending order. The cart is
// emptied, stock for every line is reserved and the order is inserted in one
// transaction, so two checkouts of the same cart cannot both succeed. On
// failure stock and orders are untouched and the cart is put back.
func (s *Service) Checkout(ctx context.Context, customerID int64, in CheckoutInput) (*domain.Order, error) {
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return nil, domain.Required("shipping_address")
	}
	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		return nil, domain.Required("payment_method")
	}

	var (
		taken   *domain.PricedCart
		created *domain.Order
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.carts.Take(ctx, customerID)
		if err != nil {
			return err
		}
		taken = cart
		if len(cart.Lines) == 0 {
			return domain.Validation(domain.CodeEmptyCart, "cart is empty")
		}

		draft := draftOrder(customerID, address, payment, cart)
		if err := s.stock.ReserveAll(ctx, reservations(draft.Items)); err != nil {
			return err
		}
		o, err := s.orders.Create(ctx, draft)
		if err != nil {
			if rerr := s.stock.ReleaseAll(ctx, reservations(draft.Items)); rerr != nil {
				s.logger.Error("release after failed order insert", zap.Error(rerr))
			}
			return fmt.Errorf("create order: %w", err)
		}
		created = o
		return nil
	})
	if err != nil {
		if taken != nil && len(taken.Lines) > 0 {
			if rerr := s.carts.Restore(ctx, *taken); rerr != nil {
				s.logger.Error("restore cart after failed checkout",
					zap.Int64("customer_id", customerID),
					zap.Error(rerr))
			}
		}
		s.logger.Info("checkout aborted", zap.Int64("customer_id", customerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.Int64("customer_id", customerID),
		zap.String("total", created.TotalAmount.StringFixed(2)))
	s.publish(ctx, events.OrderCreated, *created)
	return created, nil
}

// draftOrder freezes the cart's current unit prices into order items.
func draftOrder(customerID int64, address, payment string, cart *domain.PricedCart) domain.Order {
	draft := domain.Order{
		CustomerID:      customerID,
		Status:          domain.OrderStatusPending,
		ShippingAddress: address,
		PaymentMethod:   payment,
		Items:           make([]domain.OrderItem, 0, len(cart.Lines)),
	}
	for _, line := range cart.Lines {
		draft.Items = append(draft.Items, domain.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			ShopID:      line.Product.ShopID,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
		})
	}
	draft.TotalAmount = draft.ComputeTotal()
	return draft
}

// Cancel lets a customer cancel a pending or confirmed order. Reserved stock
// is returned for every item.
func (s *Service) Cancel(ctx context.Context, principal domain.Principal, orderID int64) (*domain.Order, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.Lock(ctx, orderID)
		if err != nil {
			return err
		}
		if !principal.IsCustomer() || o.CustomerID != principal.AccountID {
			return domain.ErrForbidden
		}
		if !o.Status.Cancellable() {
			return domain.Conflict(domain.CodeNotCancellable, fmt.Sprintf("order in status %s cannot be cancelled", o.Status))
		}
		return s.transition(ctx, o, domain.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID, events.OrderCancelled)
}

// AdvanceStatus moves an order along the lifecycle on behalf of a seller
// who sold at least one of its items.
func (s *Service) AdvanceStatus(ctx context.Context, principal domain.Principal, orderID int64, to domain.OrderStatus) (*domain.Order, error) {
	if !principal.IsSeller() {
		return nil, domain.ErrForbidden
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.Lock(ctx, orderID)
		if err != nil {
			return err
		}
		ok, err := s.orders.SellerHasItems(ctx, orderID, principal.AccountID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrForbidden
		}
		if o.Status.Terminal() {
			return domain.Conflict(domain.CodeInvalidTransition, fmt.Sprintf("order is %s and can no longer change", o.Status))
		}
		if !o.Status.CanTransition(to) {
			return domain.Conflict(domain.CodeInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", o.Status, to))
		}
		return s.transition(ctx, o, to)
	})
	if err != nil {
		return nil, err
	}
	kind := events.OrderStatusChanged
	if to == domain.OrderStatusCancelled {
		kind = events.OrderCancelled
	}
	return s.reload(ctx, orderID, kind)
}

// Get returns an order to its customer or to a seller with items in it.
func (s *Service) Get(ctx context.Context, principal domain.Principal, orderID int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case principal.IsCustomer():
		if o.CustomerID != principal.AccountID {
			return nil, domain.ErrForbidden
		}
	case principal.IsSeller():
		ok, err := s.orders.SellerHasItems(ctx, orderID, principal.AccountID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// List returns the customer's orders, newest first.
func (s *Service) List(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListForSeller returns orders containing at least one of the seller's products.
func (s *Service) ListForSeller(ctx context.Context, sellerID int64) ([]domain.Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}

func (s *Service) transition(ctx context.Context, o *domain.Order, to domain.OrderStatus) error {
	if err := s.orders.UpdateStatus(ctx, o.ID, o.Status, to); err != nil {
		return err
	}
	if to == domain.OrderStatusCancelled {
		if err := s.stock.ReleaseAll(ctx, reservations(o.Items)); err != nil {
			return fmt.Errorf("release stock for order %d: %w", o.ID, err)
		}
	}
	s.logger.Info("order status changed",
		zap.Int64("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)))
	return nil
}

func (s *Service) reload(ctx context.Context, orderID int64, kind events.Type) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kind, *o)
	return o, nil
}

// publish never fails the caller; the order is already committed.
func (s *Service) publish(ctx context.Context, kind events.Type, o domain.Order) {
	e := events.NewOrderEvent(kind, o)
	e.RequestID = logging.RequestID(ctx)
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Error("publish order event",
			zap.String("type", string(kind)),
			zap.Int64("order_id", o.ID),
			zap.Error(err))
	}
}

func reservations(items []domain.OrderItem) []domain.StockReservation {
	out := make([]domain.StockReservation, 0, len(items))
	for _, it := range items {
		out = append(out, domain.StockReservation{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
