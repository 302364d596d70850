// Package apierr renders every failure as {error, errorMessage, details?}.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imf-gadgets/gadget-api/internal/logging"
)

const (
	ValidationError             = "Validation_Error"
	AuthenticationError         = "Authentication_Error"
	InvalidCredentials          = "Invalid_Credentials"
	EmailInUse                  = "Email_In_Use"
	InvalidUserID               = "Invalid_User_Id"
	InvalidGadgetID             = "Invalid_Gadget_Id"
	DuplicateName               = "Duplicate_Name"
	InvalidCode                 = "Invalid_Code"
	GadgetAlreadyDecommissioned = "Gadget_Already_Decommissioned"
	GadgetAlreadyDestroyed      = "Gadget_Already_Destroyed"
	RateLimited                 = "Rate_Limited"
	NotFound                    = "Not_Found"
	MethodNotAllowed            = "Method_Not_Allowed"
	PayloadTooLarge             = "Payload_Too_Large"
	ServiceUnavailable          = "Service_Unavailable"
	UnknownError                = "Unknown_Error"
)

type Response struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Details      any    `json:"details,omitempty"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Write(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, Response{Error: code, ErrorMessage: msg})
}

func WriteDetails(c echo.Context, status int, code, msg string, details any) error {
	return c.JSON(status, Response{Error: code, ErrorMessage: msg, Details: details})
}

const (
	msgValidation = "Request body validation failed"
	msgUnknown    = "Unknown Error"
)

func Validation(c echo.Context, fields ...FieldError) error {
	if len(fields) == 0 {
		return Write(c, http.StatusBadRequest, ValidationError, msgValidation)
	}
	return WriteDetails(c, http.StatusBadRequest, ValidationError, msgValidation, fields)
}

func Unknown(c echo.Context, status int) error {
	return Write(c, status, UnknownError, msgUnknown)
}

// HTTPErrorHandler replaces echo's default so framework errors share the API error shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := msgUnknown

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	code := codeForStatus(status)
	if status >= http.StatusInternalServerError {
		msg = msgUnknown
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", status, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = Write(c, status, code, msg)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return ValidationError
	case http.StatusUnauthorized, http.StatusForbidden:
		return AuthenticationError
	case http.StatusNotFound:
		return NotFound
	case http.StatusMethodNotAllowed:
		return MethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		return PayloadTooLarge
	case http.StatusTooManyRequests:
		return RateLimited
	case http.StatusServiceUnavailable:
		return ServiceUnavailable
	default:
		return UnknownError
	}
}
