package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentUpdated   = "appointment.updated"
	EventAppointmentCancelled = "appointment.cancelled"
)

// Event is the payload published after an appointment write.
type Event struct {
	ID          uuid.UUID    `json:"id"`
	Type        string       `json:"type"`
	OccurredAt  time.Time    `json:"occurred_at"`
	Appointment *Appointment `json:"appointment"`
}

// Publisher delivers events keyed by routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Observer records validation outcomes. The platform metrics package
// implements it.
type Observer interface {
	ObserveValidation(entry, stage, reason string, accepted bool, elapsed time.Duration)
	ObserveFailure(op string)
}

type nopObserver struct{}

func (nopObserver) ObserveValidation(string, string, string, bool, time.Duration) {}
func (nopObserver) ObserveFailure(string)                                          {}
