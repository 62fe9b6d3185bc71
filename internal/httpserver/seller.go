package httpserver

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	sellersvc "localbazaar/internal/service/seller"
)

// maxUploadBytes bounds bulk-upload bodies.
const maxUploadBytes = 5 << 20

type productRequest struct {
	ShopID        int64            `json:"shop_id" binding:"required"`
	Category      string           `json:"category"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Image         string           `json:"image"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity int              `json:"stock_quantity"`
	IsActive      *bool            `json:"is_active"`
}

type productPatchRequest struct {
	Category    *string          `json:"category"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

type stockRequest struct {
	StockQuantity *int `json:"stock_quantity" binding:"required"`
}

func sellerShopsHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shops, err := svc.ListShops(c.Request.Context(), mustPrincipal(c).AccountID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(shops))
	}
}

func createShopHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sellersvc.ShopInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		shop, err := svc.CreateShop(c.Request.Context(), mustPrincipal(c).AccountID, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, shop)
	}
}

func updateShopHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req sellersvc.ShopPatch
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		shop, err := svc.UpdateShop(c.Request.Context(), mustPrincipal(c).AccountID, id, req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, shop)
	}
}

func sellerProductsHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ListProducts(c.Request.Context(), mustPrincipal(c).AccountID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toProductDTOs(products)))
	}
}

func createProductHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "shop_id and a decimal price are required")
			return
		}
		p, err := svc.CreateProduct(c.Request.Context(), mustPrincipal(c).AccountID, sellersvc.ProductInput{
			ShopID:        req.ShopID,
			Category:      req.Category,
			Name:          req.Name,
			Description:   req.Description,
			Image:         req.Image,
			Price:         *req.Price,
			StockQuantity: req.StockQuantity,
			IsActive:      req.IsActive,
		})
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toProductDTO(*p))
	}
}

func updateProductHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req productPatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		p, err := svc.UpdateProduct(c.Request.Context(), mustPrincipal(c).AccountID, id, sellersvc.ProductPatch{
			Category:    req.Category,
			Name:        req.Name,
			Description: req.Description,
			Image:       req.Image,
			Price:       req.Price,
			IsActive:    req.IsActive,
		})
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toProductDTO(*p))
	}
}

func setStockHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "productId")
		if !ok {
			return
		}
		var req stockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "stock_quantity is required")
			return
		}
		p, err := svc.SetStock(c.Request.Context(), mustPrincipal(c).AccountID, id, *req.StockQuantity)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toProductDTO(*p))
	}
}

// lowStockHandler uses the configured threshold when the query omits one.
func lowStockHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold := -1
		if raw := c.Query("threshold"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				badRequest(c, "threshold must be a non-negative integer")
				return
			}
			threshold = n
		}
		products, err := svc.LowStock(c.Request.Context(), mustPrincipal(c).AccountID, threshold)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toProductDTOs(products)))
	}
}

// bulkUploadHandler accepts a multipart "file" field or a raw text/csv body.
// The target shop comes from the shop_id form field or query parameter.
func bulkUploadHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		shopID, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("shop_id")), 10, 64)
		if err != nil {
			shopID, err = strconv.ParseInt(c.Query("shop_id"), 10, 64)
		}
		if err != nil || shopID <= 0 {
			badRequest(c, "shop_id must be a positive integer")
			return
		}

		var body io.Reader = c.Request.Body
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			fh, err := c.FormFile("file")
			if err != nil {
				badRequest(c, "file is required")
				return
			}
			f, err := fh.Open()
			if err != nil {
				badRequest(c, "could not read uploaded file")
				return
			}
			defer f.Close()
			body = f
		}

		created, err := svc.BulkUpload(c.Request.Context(), mustPrincipal(c).AccountID, shopID, body)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":  strconv.Itoa(len(created)) + " products imported",
			"imported": len(created),
			"products": toProductDTOs(created),
		})
	}
}

func salesHandler(svc SellerService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := svc.Sales(c.Request.Context(), mustPrincipal(c).AccountID)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, salesDTO{
			Orders:    s.Orders,
			UnitsSold: s.UnitsSold,
			Revenue:   money(s.Revenue),
		})
	}
}
