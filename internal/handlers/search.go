package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/greenbasket/backend/internal/service/search"
	"github.com/greenbasket/backend/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return Fail(c, http.StatusBadRequest, "provide q")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, products, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, size)
	if err != nil {
		c.Logger().Errorf("search error: %v", err)
		return Fail(c, http.StatusInternalServerError, "search failed")
	}

	return OK(c, http.StatusOK, "search results", map[string]interface{}{
		"total":    total,
		"products": products,
	})
}
