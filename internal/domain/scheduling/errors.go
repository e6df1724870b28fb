package scheduling

import (
	"errors"
	"fmt"
)

// Collaborator failures. Validation rejections are reported through Outcome
// and never through these.
var (
	ErrStore                = errors.New("appointment store unavailable")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrVersionConflict      = errors.New("appointment was changed by another user")
	ErrGuardBusy            = errors.New("another booking for this professional is in progress")
	ErrInvalidInput         = errors.New("invalid input")
)

func storeFailure(op string, err error) error {
	if errors.Is(err, ErrAppointmentNotFound) || errors.Is(err, ErrVersionConflict) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
