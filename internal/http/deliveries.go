package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
)

func listDeliveriesHandler(deliveries repository.DeliveriesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		if deliveries == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "delivery log not configured"})
		}

		f := repository.DeliveryFilter{Limit: 50}
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				f.Limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				f.Offset = n
			}
		}
		f.EventType = strings.TrimSpace(c.QueryParam("event_type"))
		if raw := strings.TrimSpace(c.QueryParam("outcome")); raw != "" {
			o := model.DeliveryOutcome(raw)
			if !o.Valid() {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid outcome"})
			}
			f.Outcome = o
		}

		rows, err := deliveries.List(c.Request().Context(), f)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   f.Limit,
			"offset":  f.Offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
