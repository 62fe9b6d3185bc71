package httpserver

import (
	"context"
	"errors"
	"io"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"localbazaar/internal/domain"
	accountsvc "localbazaar/internal/service/account"
	catalogsvc "localbazaar/internal/service/catalog"
	ordersvc "localbazaar/internal/service/order"
	sellersvc "localbazaar/internal/service/seller"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Principal, error)
}

type AccountService interface {
	Authenticator
	Register(ctx context.Context, role domain.Role, in accountsvc.RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, role domain.Role, email, password string) (*accountsvc.Session, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, accountID int64) (*domain.Account, error)
	UpdateProfile(ctx context.Context, accountID int64, in accountsvc.ProfileInput) (*domain.Account, error)
	AccessTTLSeconds() int
}

type CatalogService interface {
	ListProducts(ctx context.Context, f catalogsvc.ListFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	Search(ctx context.Context, q string) ([]domain.Product, error)
	ProductsByCategory(ctx context.Context, name string) ([]domain.Product, error)
	ListShops(ctx context.Context, location string) ([]domain.Shop, error)
	GetShop(ctx context.Context, id int64) (*domain.Shop, error)
	ShopProducts(ctx context.Context, shopID int64) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type CartService interface {
	AddItem(ctx context.Context, customerID, productID int64, quantity int) (*domain.PricedCart, error)
	UpdateItem(ctx context.Context, customerID, productID int64, quantity int) (*domain.PricedCart, error)
	RemoveItem(ctx context.Context, customerID, productID int64) (*domain.PricedCart, error)
	Clear(ctx context.Context, customerID int64) error
	Price(ctx context.Context, customerID int64) (*domain.PricedCart, error)
}

type OrderService interface {
	Checkout(ctx context.Context, customerID int64, in ordersvc.CheckoutInput) (*domain.Order, error)
	Cancel(ctx context.Context, p domain.Principal, orderID int64) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, p domain.Principal, orderID int64, to domain.OrderStatus) (*domain.Order, error)
	Get(ctx context.Context, p domain.Principal, orderID int64) (*domain.Order, error)
	List(ctx context.Context, customerID int64) ([]domain.Order, error)
	ListForSeller(ctx context.Context, sellerID int64) ([]domain.Order, error)
}

type SellerService interface {
	CreateShop(ctx context.Context, sellerID int64, in sellersvc.ShopInput) (*domain.Shop, error)
	UpdateShop(ctx context.Context, sellerID, shopID int64, in sellersvc.ShopPatch) (*domain.Shop, error)
	ListShops(ctx context.Context, sellerID int64) ([]domain.Shop, error)
	CreateProduct(ctx context.Context, sellerID int64, in sellersvc.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, sellerID, productID int64, in sellersvc.ProductPatch) (*domain.Product, error)
	ListProducts(ctx context.Context, sellerID int64) ([]domain.Product, error)
	SetStock(ctx context.Context, sellerID, productID int64, quantity int) (*domain.Product, error)
	LowStock(ctx context.Context, sellerID int64, threshold int) ([]domain.Product, error)
	BulkUpload(ctx context.Context, sellerID, shopID int64, r io.Reader) ([]domain.Product, error)
	Sales(ctx context.Context, sellerID int64) (domain.SalesSummary, error)
}

// Deps carries the services behind the routes.
type Deps struct {
	Accounts AccountService
	Catalog  CatalogService
	Carts    CartService
	Orders   OrderService
	Sellers  SellerService

	AllowedOrigins []string
	Version        string
}

func (d Deps) validate() error {
	switch {
	case d.Accounts == nil:
		return errors.New("httpserver: account service required")
	case d.Catalog == nil:
		return errors.New("httpserver: catalog service required")
	case d.Carts == nil:
		return errors.New("httpserver: cart service required")
	case d.Orders == nil:
		return errors.New("httpserver: order service required")
	case d.Sellers == nil:
		return errors.New("httpserver: seller service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	router := gin.New()
	router.Use(requestID(), recovery(logger), accessLog(logger), corsMiddleware(deps.AllowedOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/api/health", apiHealthHandler(deps.Version))

	api := router.Group("/", authenticate(deps.Accounts, logger))

	auth := api.Group("/auth")
	auth.POST("/register", registerHandler(deps.Accounts, domain.RoleCustomer, logger))
	auth.POST("/login", loginHandler(deps.Accounts, domain.RoleCustomer, logger))
	auth.POST("/logout", requireAuth(), logoutHandler(deps.Accounts, logger))

	me := api.Group("/me", requireAuth())
	me.GET("", profileHandler(deps.Accounts, logger))
	me.PATCH("", updateProfileHandler(deps.Accounts, logger))

	api.GET("/categories", listCategoriesHandler(deps.Catalog, logger))
	api.GET("/products", listProductsHandler(deps.Catalog, logger))
	api.GET("/products/search", searchProductsHandler(deps.Catalog, logger))
	api.GET("/products/category/:name", categoryProductsHandler(deps.Catalog, logger))
	api.GET("/products/:id", getProductHandler(deps.Catalog, logger))
	api.GET("/shops", listShopsHandler(deps.Catalog, logger))
	api.GET("/shops/:id", getShopHandler(deps.Catalog, logger))
	api.GET("/shops/:id/products", shopProductsHandler(deps.Catalog, logger))

	cart := api.Group("/cart", requireRole(domain.RoleCustomer))
	cart.GET("", getCartHandler(deps.Carts, logger))
	cart.POST("/items", addCartItemHandler(deps.Carts, logger))
	cart.PUT("/items/:productId", updateCartItemHandler(deps.Carts, logger))
	cart.DELETE("/items/:productId", removeCartItemHandler(deps.Carts, logger))
	cart.DELETE("", clearCartHandler(deps.Carts, logger))

	orders := api.Group("/orders", requireAuth())
	orders.POST("", requireRole(domain.RoleCustomer), checkoutHandler(deps.Orders, logger))
	orders.GET("", requireRole(domain.RoleCustomer), listOrdersHandler(deps.Orders, logger))
	orders.GET("/:id", getOrderHandler(deps.Orders, logger))
	orders.PATCH("/:id/cancel", requireRole(domain.RoleCustomer), cancelOrderHandler(deps.Orders, logger))
	orders.PATCH("/:id/status", requireRole(domain.RoleSeller), advanceOrderHandler(deps.Orders, logger))

	api.POST("/seller/register", registerHandler(deps.Accounts, domain.RoleSeller, logger))
	api.POST("/seller/login", loginHandler(deps.Accounts, domain.RoleSeller, logger))

	seller := api.Group("/seller", requireRole(domain.RoleSeller))
	seller.GET("/shops", sellerShopsHandler(deps.Sellers, logger))
	seller.POST("/shops", createShopHandler(deps.Sellers, logger))
	seller.PATCH("/shops/:id", updateShopHandler(deps.Sellers, logger))
	seller.GET("/products", sellerProductsHandler(deps.Sellers, logger))
	seller.POST("/products", createProductHandler(deps.Sellers, logger))
	seller.POST("/products/bulk-upload", bulkUploadHandler(deps.Sellers, logger))
	seller.PATCH("/products/:id", updateProductHandler(deps.Sellers, logger))
	seller.GET("/inventory", sellerProductsHandler(deps.Sellers, logger))
	seller.GET("/inventory/low-stock", lowStockHandler(deps.Sellers, logger))
	seller.PUT("/inventory/:productId", setStockHandler(deps.Sellers, logger))
	seller.GET("/orders", sellerOrdersHandler(deps.Orders, logger))
	seller.GET("/analytics/sales", salesHandler(deps.Sellers, logger))

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Authorization", requestIDHeader)
	cfg.AddExposeHeaders(requestIDHeader)
	return cors.New(cfg)
}
