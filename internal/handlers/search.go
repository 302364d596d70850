package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/models"
)

type searchResponse struct {
	Message string          `json:"message"`
	Total   int64           `json:"total"`
	Gadgets []models.Gadget `json:"gadgets"`
}

func (h *GadgetHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gadgets_search")
	me := identity(c)

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return apierr.Validation(c, apierr.FieldError{Field: "q", Message: "is required"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	total, gadgets, err := h.Gadgets.Search(ctx, me.ID, q, page, size)
	if err != nil {
		l.Error("gadget_search_error", "status", http.StatusInternalServerError, "error", err)
		return apierr.Unknown(c, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, searchResponse{Message: "Successfully searched gadgets", Total: total, Gadgets: gadgets})
}
