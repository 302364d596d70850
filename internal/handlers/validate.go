package handlers

import (
	"net/mail"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/imf-gadgets/gadget-api/internal/apierr"
	"github.com/imf-gadgets/gadget-api/internal/models"
)

const (
	maxEmailLen    = 64
	maxPasswordLen = 64
	// bcrypt refuses longer input
	maxPasswordBytes = 72
	maxNameLen       = 128
	codeLen          = 6
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b credentials) validate() []apierr.FieldError {
	var errs []apierr.FieldError
	switch {
	case b.Email == "":
		errs = append(errs, apierr.FieldError{Field: "email", Message: "is required"})
	case utf8.RuneCountInString(b.Email) > maxEmailLen:
		errs = append(errs, apierr.FieldError{Field: "email", Message: "must be at most 64 characters"})
	case !validEmail(b.Email):
		errs = append(errs, apierr.FieldError{Field: "email", Message: "must be a valid email"})
	}
	switch n := utf8.RuneCountInString(b.Password); {
	case n == 0:
		errs = append(errs, apierr.FieldError{Field: "password", Message: "is required"})
	case n > maxPasswordLen:
		errs = append(errs, apierr.FieldError{Field: "password", Message: "must be at most 64 characters"})
	case len(b.Password) > maxPasswordBytes:
		errs = append(errs, apierr.FieldError{Field: "password", Message: "must be at most 72 bytes"})
	}
	return errs
}

// validEmail accepts bare addresses only, no display names.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

type patchBody struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

type patchInput struct {
	id     uuid.UUID
	name   *string
	status *models.GadgetStatus
}

func (b patchBody) validate() (patchInput, []apierr.FieldError) {
	var (
		in   patchInput
		errs []apierr.FieldError
	)

	id, err := uuid.Parse(b.ID)
	if err != nil {
		errs = append(errs, apierr.FieldError{Field: "id", Message: "must be a uuid"})
	}
	in.id = id

	if b.Name != nil {
		if n := utf8.RuneCountInString(*b.Name); n == 0 || n > maxNameLen {
			errs = append(errs, apierr.FieldError{Field: "name", Message: "must be between 1 and " + strconv.Itoa(maxNameLen) + " characters"})
		}
		in.name = b.Name
	}
	if b.Status != nil {
		st, ok := models.ParseGadgetStatus(*b.Status)
		if !ok {
			errs = append(errs, apierr.FieldError{Field: "status", Message: "must be one of Available, Deployed, Destroyed, Decommissioned"})
		}
		in.status = &st
	}
	if b.Name == nil && b.Status == nil {
		errs = append(errs, apierr.FieldError{Field: "name", Message: "name or status is required"})
	}
	return in, errs
}

type selfDestructBody struct {
	Code string `json:"code"`
}

func (b selfDestructBody) validate() []apierr.FieldError {
	if utf8.RuneCountInString(b.Code) != codeLen {
		return []apierr.FieldError{{Field: "code", Message: "must be exactly 6 characters"}}
	}
	return nil
}
