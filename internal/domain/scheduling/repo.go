package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/professional"
)

// AppointmentStore persists appointments. Implementations return
// ErrAppointmentNotFound and ErrVersionConflict for the matching cases.
type AppointmentStore interface {
	// ListForProfessionalOnDate returns the non-cancelled appointments whose
	// start lies in the local day beginning at day.
	ListForProfessionalOnDate(ctx context.Context, professionalID uuid.UUID, day time.Time) ([]*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	// Update writes a and bumps its version when a.VersionID still matches.
	Update(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
}

// ProfessionalDirectory resolves professionals with their parsed availability.
type ProfessionalDirectory interface {
	GetProfessional(ctx context.Context, id uuid.UUID) (*professional.Professional, error)
}
