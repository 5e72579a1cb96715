package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/uzhavansanthai/marketplace/internal/util"
)

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func clampLimit(s string) int {
	v := util.ParseIntDefault(s, util.DefaultPageSize)
	if v < 1 || v > 100 {
		return util.DefaultPageSize
	}
	return v
}

// pageParams reads page/limit query parameters with the usual clamping.
func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	size := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	return page, offset, limit
}
