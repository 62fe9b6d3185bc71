package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"localbazaar/internal/domain"
	ordersvc "localbazaar/internal/service/order"
)

// checkoutRequest carries no prices or totals; those come from the catalog.
type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func checkoutHandler(svc OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		o, err := svc.Checkout(c.Request.Context(), mustPrincipal(c).AccountID, ordersvc.CheckoutInput{
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
		})
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toOrderDTO(*o))
	}
}

func listOrdersHandler(svc OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context(), mustPrincipal(c).AccountID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toOrderDTOs(orders)))
	}
}

func getOrderHandler(svc OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), mustPrincipal(c), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderDTO(*o))
	}
}

func cancelOrderHandler(svc OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		o, err := svc.Cancel(c.Request.Context(), mustPrincipal(c), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderDTO(*o))
	}
}

func advanceOrderHandler(svc OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "status is required")
			return
		}
		to, err := domain.ParseOrderStatus(req.Status)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		o, err := svc.AdvanceStatus(c.Request.Context(), mustPrincipal(c), id, to)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderDTO(*o))
	}
}

func sellerOrdersHandler(svc OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListForSeller(c.Request.Context(), mustPrincipal(c).AccountID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toOrderDTOs(orders)))
	}
}
