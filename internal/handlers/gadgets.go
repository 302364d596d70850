package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/middleware/auth"
	"github.com/imf-gadgets/gadget-api/internal/models"
	"github.com/imf-gadgets/gadget-api/internal/service"
)

type GadgetHandler struct {
	Gadgets *service.GadgetService
}

type gadgetResponse struct {
	Message string         `json:"message"`
	Gadget  *models.Gadget `json:"gadget"`
}

type gadgetsResponse struct {
	Message string               `json:"message"`
	Gadgets []service.GadgetView `json:"gadgets"`
}

type messageResponse struct {
	Message string `json:"message"`
}

const msgNoGadget = "You don't have any gadget with this Id"

func (h *GadgetHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gadgets_list")
	me := identity(c)

	gadgets, err := h.Gadgets.List(ctx, me.ID, c.QueryParam("status"))
	if err != nil {
		return failure(c, l, "gadgets_list_error", err)
	}
	return c.JSON(http.StatusOK, gadgetsResponse{Message: "Successfully fetched gadgets", Gadgets: gadgets})
}

func (h *GadgetHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gadgets_create")
	me := identity(c)

	g, err := h.Gadgets.Create(ctx, me.ID)
	if err != nil {
		return failure(c, l, "gadget_create_error", err)
	}

	l.Info("gadget_created", "gadget_id", g.ID, "name", g.Name)
	return c.JSON(http.StatusOK, gadgetResponse{Message: "Successfully created gadget", Gadget: g})
}

func (h *GadgetHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gadgets_update")
	me := identity(c)

	var body patchBody
	if err := c.Bind(&body); err != nil {
		l.Warn("gadget_update_error", "status", http.StatusBadRequest, "error", err)
		return apierr.Validation(c)
	}
	in, errs := body.validate()
	if len(errs) > 0 {
		l.Warn("gadget_update_error", "status", http.StatusBadRequest, "reason", "validation")
		return apierr.Validation(c, errs...)
	}

	g, err := h.Gadgets.Update(ctx, me.ID, in.id, in.name, in.status)
	if err != nil {
		return failure(c, l, "gadget_update_error", err)
	}

	l.Info("gadget_updated", "gadget_id", g.ID)
	return c.JSON(http.StatusOK, gadgetResponse{Message: "Successfully updated gadget info", Gadget: g})
}

// Decommission takes the gadget id from ?id= or, failing that, a JSON body.
func (h *GadgetHandler) Decommission(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gadgets_decommission")
	me := identity(c)

	var body struct {
		ID string `query:"id" json:"id"`
	}
	if err := c.Bind(&body); err != nil {
		l.Warn("gadget_decommission_error", "status", http.StatusBadRequest, "error", err)
		return apierr.Validation(c)
	}
	if body.ID == "" {
		return apierr.Validation(c, apierr.FieldError{Field: "id", Message: "is required"})
	}

	id, err := uuid.Parse(body.ID)
	if err != nil {
		l.Warn("gadget_decommission_error", "status", http.StatusBadRequest, "reason", "malformed_id")
		return apierr.Write(c, http.StatusBadRequest, apierr.InvalidGadgetID, msgNoGadget)
	}

	g, err := h.Gadgets.Decommission(ctx, me.ID, id)
	if err != nil {
		return failure(c, l, "gadget_decommission_error", err)
	}

	l.Info("gadget_decommissioned", "gadget_id", g.ID)
	return c.JSON(http.StatusOK, messageResponse{Message: "Gadget was decommissioned successfully"})
}

func (h *GadgetHandler) SelfDestruct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "gadgets_self_destruct")
	me := identity(c)

	var body selfDestructBody
	if err := c.Bind(&body); err != nil {
		l.Warn("gadget_self_destruct_error", "status", http.StatusBadRequest, "error", err)
		return apierr.Validation(c)
	}
	if errs := body.validate(); len(errs) > 0 {
		l.Warn("gadget_self_destruct_error", "status", http.StatusBadRequest, "reason", "validation")
		return apierr.Validation(c, errs...)
	}

	// a malformed id can never match, so it is reported like an unknown one
	id, err := uuid.Parse(c.Param("gadgetId"))
	if err != nil {
		id = uuid.Nil
	}

	g, err := h.Gadgets.SelfDestruct(ctx, me.ID, id, body.Code)
	if err != nil {
		return failure(c, l, "gadget_self_destruct_error", err)
	}

	l.Info("gadget_destroyed", "gadget_id", g.ID)
	return c.JSON(http.StatusOK, messageResponse{Message: "Gadget was destroyed successfully"})
}

func identity(c echo.Context) auth.Identity {
	id, _ := auth.IdentityFrom(c)
	return id
}

// failure logs err and maps it onto the API error shape.
func failure(c echo.Context, l *slog.Logger, event string, err error) error {
	status := http.StatusBadRequest
	var code, msg string

	switch {
	case errors.Is(err, service.ErrInvalidGadgetID):
		code, msg = apierr.InvalidGadgetID, msgNoGadget
	case errors.Is(err, service.ErrDuplicateName):
		code, msg = apierr.DuplicateName, "Another gadget with this name already exists"
	case errors.Is(err, service.ErrAlreadyDecommissioned):
		code, msg = apierr.GadgetAlreadyDecommissioned, "Gadget is already decommissioned"
	case errors.Is(err, service.ErrAlreadyDestroyed):
		code, msg = apierr.GadgetAlreadyDestroyed, "Gadget is already destroyed"
	case errors.Is(err, service.ErrInvalidCode):
		code, msg = apierr.InvalidCode, "Confirmation code is incorrect"
	case errors.Is(err, service.ErrInvalidUserID):
		code, msg = apierr.InvalidUserID, "Invalid User Id"
	case errors.Is(err, service.ErrNothingToUpdate):
		l.Warn(event, "status", status, "reason", err.Error())
		return apierr.Validation(c)
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return apierr.Unknown(c, http.StatusInternalServerError)
	}

	l.Warn(event, "status", status, "reason", err.Error())
	return apierr.Write(c, status, code, msg)
}
