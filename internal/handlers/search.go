package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/uzhavansanthai/marketplace/internal/service/search"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Products(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return respondError(c, http.StatusBadRequest, "Validation failed",
			"query parameter q is required")
	}
	if h.ES == nil {
		return respondError(c, http.StatusServiceUnavailable, "Search unavailable",
			"search is not configured")
	}

	page, offset, limit := pageParams(c)

	total, products, err := search.Products(c.Request().Context(), h.ES, h.Index, query, offset, limit)
	if err != nil {
		c.Logger().Errorf("elasticsearch query error: %v", err)
		return respondError(c, http.StatusInternalServerError, "Search failed",
			"an error occurred while searching products")
	}

	return respond(c, http.StatusOK, "Search completed successfully", map[string]any{
		"query":      query,
		"products":   products,
		"pagination": NewPagination(page, limit, total),
	})
}
