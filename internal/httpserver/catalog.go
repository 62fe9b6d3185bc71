package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogsvc "localbazaar/internal/service/catalog"
)

func listProductsHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ListProducts(c.Request.Context(), catalogsvc.ListFilter{
			Category: c.Query("category"),
			Search:   c.Query("search"),
		})
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toProductDTOs(products)))
	}
}

func searchProductsHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toProductDTOs(products)))
	}
}

func categoryProductsHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ProductsByCategory(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toProductDTOs(products)))
	}
}

func getProductHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		p, err := svc.GetProduct(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toProductDTO(*p))
	}
}

func listShopsHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shops, err := svc.ListShops(c.Request.Context(), c.Query("location"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(shops))
	}
}

func getShopHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		shop, err := svc.GetShop(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, shop)
	}
}

func shopProductsHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		products, err := svc.ShopProducts(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(toProductDTOs(products)))
	}
}

func listCategoriesHandler(svc CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list(categories))
	}
}
