package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUser returns the authenticated user's ID and role as stored
// in the context by the JWT middleware. Zero ID means unauthenticated
// (only possible on misconfigured routes).
func currentUser(c echo.Context) (uint64, string) {
	id, _ := c.Get("user_id").(uint64)
	role, _ := c.Get("role").(string)
	return id, role
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// pageParams reads page/limit query parameters with defaults and
// returns the derived offset. Limit is clamped to 100.
func pageParams(c echo.Context) (page, limit, offset int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = queryInt(c, "limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryUint(c echo.Context, name string) uint64 {
	n, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
