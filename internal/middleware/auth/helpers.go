package auth

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to the request.
type Identity struct {
	ID    uuid.UUID
	Email string
}

func setIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity set by RequireLogin.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// WithIdentity attaches id to c; handler tests use it to skip the cookie dance.
func WithIdentity(c echo.Context, id Identity) echo.Context {
	setIdentity(c, id)
	return c
}
