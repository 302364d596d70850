package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/cookies"
	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/models"
	"github.com/imf-gadgets/gadget-api/internal/service"
	"github.com/imf-gadgets/gadget-api/internal/tokens"
)

type AuthHandler struct {
	Auth    *service.AuthService
	Cookies cookies.Builder
}

type userResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", http.StatusBadRequest, "error", err)
		return apierr.Validation(c)
	}
	if errs := req.validate(); len(errs) > 0 {
		l.Warn("signup_error", "status", http.StatusBadRequest, "reason", "validation")
		return apierr.Validation(c, errs...)
	}

	user, err := h.Auth.Signup(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrEmailInUse) {
		l.Warn("signup_error", "status", http.StatusBadRequest, "reason", "email_in_use")
		return apierr.Write(c, http.StatusBadRequest, apierr.EmailInUse, "Email is already in use")
	}
	if err != nil {
		l.Error("signup_error", "status", http.StatusBadRequest, "error", err)
		return apierr.Unknown(c, http.StatusBadRequest)
	}

	l.Info("signup_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, userResponse{Message: "Signup successful", User: user})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", http.StatusBadRequest, "error", err)
		return apierr.Validation(c)
	}
	if errs := req.validate(); len(errs) > 0 {
		l.Warn("login_failed", "status", http.StatusBadRequest, "reason", "validation")
		return apierr.Validation(c, errs...)
	}

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		l.Warn("login_failed", "status", http.StatusBadRequest, "reason", "invalid_credentials")
		return apierr.Write(c, http.StatusBadRequest, apierr.InvalidCredentials, "Invalid Credentials")
	}
	if err != nil {
		l.Error("login_failed", "status", http.StatusInternalServerError, "error", err)
		return apierr.Unknown(c, http.StatusInternalServerError)
	}

	c.SetCookie(h.Cookies.Create(cookies.AccessName, res.Tokens.Access, tokens.AccessTTL))
	c.SetCookie(h.Cookies.Create(cookies.RefreshName, res.Tokens.Refresh, tokens.RefreshTTL))

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, userResponse{Message: "Login successful", User: res.User})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if err := h.Auth.Logout(ctx, cookies.Value(c, cookies.RefreshName)); err != nil {
		l.Error("logout_revoke_failed", "error", err)
	}

	c.SetCookie(h.Cookies.Delete(cookies.AccessName))
	c.SetCookie(h.Cookies.Delete(cookies.RefreshName))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}
