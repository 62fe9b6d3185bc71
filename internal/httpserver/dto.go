package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"localbazaar/internal/domain"
)

// money renders amounts as strings with two decimal places.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type productDTO struct {
	ID            int64     `json:"id"`
	ShopID        int64     `json:"shop_id"`
	ShopName      string    `json:"shop_name"`
	CategoryID    *int64    `json:"category_id"`
	Category      string    `json:"category,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Image         string    `json:"image,omitempty"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{
		ID:            p.ID,
		ShopID:        p.ShopID,
		ShopName:      p.ShopName,
		CategoryID:    p.CategoryID,
		Category:      p.CategoryName,
		Name:          p.Name,
		Description:   p.Description,
		Image:         p.Image,
		Price:         money(p.Price),
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProductDTOs(ps []domain.Product) []productDTO {
	out := make([]productDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductDTO(p))
	}
	return out
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Results: items}
}

type cartLineDTO struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	ShopID      int64  `json:"shop_id"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type cartDTO struct {
	Items      []cartLineDTO `json:"items"`
	TotalItems int           `json:"total_items"`
	Total      string        `json:"total"`
	Removed    []int64       `json:"removed_products,omitempty"`
}

func toCartDTO(c domain.PricedCart) cartDTO {
	lines := make([]cartLineDTO, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, cartLineDTO{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			ShopID:      l.Product.ShopID,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.UnitPrice),
			LineTotal:   money(l.LineTotal),
		})
	}
	return cartDTO{
		Items:      lines,
		TotalItems: c.ItemCount(),
		Total:      money(c.Total),
		Removed:    c.Pruned,
	}
}

type orderItemDTO struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	ShopID      int64  `json:"shop_id"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type orderDTO struct {
	ID              int64          `json:"id"`
	CustomerID      int64          `json:"customer_id"`
	Status          string         `json:"status"`
	TotalAmount     string         `json:"total_amount"`
	ShippingAddress string         `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
	Items           []orderItemDTO `json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func toOrderDTO(o domain.Order) orderDTO {
	items := make([]orderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDTO{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ShopID:      it.ShopID,
			Quantity:    it.Quantity,
			Price:       money(it.Price),
			Subtotal:    money(it.Subtotal()),
		})
	}
	return orderDTO{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		TotalAmount:     money(o.TotalAmount),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderDTOs(os []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(os))
	for _, o := range os {
		out = append(out, toOrderDTO(o))
	}
	return out
}

type salesDTO struct {
	Orders    int    `json:"total_orders"`
	UnitsSold int    `json:"units_sold"`
	Revenue   string `json:"total_revenue"`
}
