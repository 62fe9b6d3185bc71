package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func getCartHandler(svc CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Price(c.Request.Context(), mustPrincipal(c).AccountID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCartDTO(*cart))
	}
}

// addCartItemHandler defaults quantity to 1 when omitted.
func addCartItemHandler(svc CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "product_id is required")
			return
		}
		qty := 1
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		cart, err := svc.AddItem(c.Request.Context(), mustPrincipal(c).AccountID, req.ProductID, qty)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toCartDTO(*cart))
	}
}

func updateCartItemHandler(svc CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := pathID(c, "productId")
		if !ok {
			return
		}
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "quantity is required")
			return
		}
		cart, err := svc.UpdateItem(c.Request.Context(), mustPrincipal(c).AccountID, productID, *req.Quantity)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCartDTO(*cart))
	}
}

func removeCartItemHandler(svc CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := pathID(c, "productId")
		if !ok {
			return
		}
		cart, err := svc.RemoveItem(c.Request.Context(), mustPrincipal(c).AccountID, productID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCartDTO(*cart))
	}
}

func clearCartHandler(svc CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), mustPrincipal(c).AccountID); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
