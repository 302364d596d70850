package service

import (
	"errors"

	"github.com/imf-gadgets/gadget-api/internal/models"
)

var (
	ErrEmailInUse            = errors.New("email is already in use")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidUserID         = errors.New("invalid user id")
	ErrInvalidGadgetID       = errors.New("no owned gadget with this id")
	ErrDuplicateName         = errors.New("another gadget with this name already exists")
	ErrAlreadyDecommissioned = errors.New("gadget is already decommissioned")
	ErrAlreadyDestroyed      = errors.New("gadget is already destroyed")
	ErrInvalidCode           = errors.New("confirmation code is incorrect")
	ErrNothingToUpdate       = errors.New("nothing to update")
)

func alreadyTerminal(s models.GadgetStatus) error {
	if s == models.StatusDestroyed {
		return ErrAlreadyDestroyed
	}
	return ErrAlreadyDecommissioned
}
