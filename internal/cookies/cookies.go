package cookies

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	AccessName  = "AccessToken"
	RefreshName = "RefreshToken"
)

// Builder stamps the session cookies with the deployment's Secure flag.
type Builder struct {
	Secure bool
}

func (b Builder) Create(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (b Builder) Delete(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Value returns the named cookie's value or "" when absent.
func Value(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
