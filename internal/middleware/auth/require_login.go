package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/cookies"
	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/tokens"
)

const (
	msgAuthRequired = "Authentication required"
	msgInvalidToken = "Invalid Access Token"
)

// Reissue outcomes reported to the observer.
const (
	OutcomeReissued = "reissued"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type RefreshStore interface {
	IsRefreshTokenValid(ctx context.Context, userID uuid.UUID, token string) (bool, error)
}

type Session struct {
	Codec    *tokens.Codec
	Store    RefreshStore
	Cookies  cookies.Builder
	Observer func(outcome string)
}

func NewSession(codec *tokens.Codec, store RefreshStore, cb cookies.Builder) *Session {
	return &Session{Codec: codec, Store: store, Cookies: cb}
}

// RequireLogin lets a request through on a valid access token, or silently
// reissues one from a stored refresh token when the access token has expired.
func (s *Session) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "session")

		access := cookies.Value(c, cookies.AccessName)
		refresh := cookies.Value(c, cookies.RefreshName)
		if access == "" && refresh == "" {
			return deny(c, msgAuthRequired)
		}

		if access != "" {
			claims, err := s.Codec.VerifyAccess(access)
			if err == nil {
				setIdentity(c, Identity{ID: claims.UserID(), Email: claims.Email})
				return next(c)
			}
			if !errors.Is(err, tokens.ErrExpired) {
				l.Info("access_rejected", "status", http.StatusForbidden, "reason", err.Error())
				return deny(c, msgInvalidToken)
			}
		}

		return s.reissue(c, l, refresh, next)
	}
}

func (s *Session) reissue(c echo.Context, l *slog.Logger, refresh string, next echo.HandlerFunc) error {
	if refresh == "" {
		s.observe(OutcomeRejected)
		return deny(c, msgAuthRequired)
	}

	claims, err := s.Codec.VerifyRefresh(refresh)
	if err != nil {
		l.Info("refresh_rejected", "status", http.StatusForbidden, "reason", err.Error())
		s.observe(OutcomeRejected)
		return deny(c, msgAuthRequired)
	}

	ok, err := s.Store.IsRefreshTokenValid(c.Request().Context(), claims.UserID(), refresh)
	if err != nil {
		l.Error("refresh_lookup_failed", "status", http.StatusInternalServerError, "error", err)
		s.observe(OutcomeError)
		return apierr.Unknown(c, http.StatusInternalServerError)
	}
	if !ok {
		l.Info("refresh_rejected", "status", http.StatusForbidden, "reason", "revoked", "user_id", claims.Subject)
		s.observe(OutcomeRejected)
		return deny(c, msgAuthRequired)
	}

	access, _, err := s.Codec.ReissueAccess(claims)
	if err != nil {
		l.Error("reissue_failed", "status", http.StatusInternalServerError, "error", err)
		s.observe(OutcomeError)
		return apierr.Unknown(c, http.StatusInternalServerError)
	}

	c.SetCookie(s.Cookies.Create(cookies.AccessName, access, tokens.AccessTTL))
	setIdentity(c, Identity{ID: claims.UserID(), Email: claims.Email})
	s.observe(OutcomeReissued)
	l.Info("access_reissued", "user_id", claims.Subject)
	return next(c)
}

func (s *Session) observe(outcome string) {
	if s.Observer != nil {
		s.Observer(outcome)
	}
}

func deny(c echo.Context, msg string) error {
	return apierr.Write(c, http.StatusForbidden, apierr.AuthenticationError, msg)
}
