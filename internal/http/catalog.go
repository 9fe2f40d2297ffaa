package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/model"
)

// CatalogReader serves the active catalog.
type CatalogReader interface {
	ActiveCatalog(ctx context.Context) ([]model.ProductWithPrices, error)
}

func listProductsHandler(catalog CatalogReader, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		products, err := catalog.ActiveCatalog(c.Request().Context())
		if err != nil {
			log.Error("catalog read failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}
		if products == nil {
			products = []model.ProductWithPrices{}
		}
		return c.JSON(http.StatusOK, map[string]any{
			"count":    len(products),
			"products": products,
		})
	}
}
