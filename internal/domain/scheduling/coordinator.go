package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/professional"
	"github.com/clinic/clinic/internal/platform/clock"
)

const (
	entryValidate = "validate"
	entryAttempt  = "attempt"
	entryForm     = "form"
	entryCell     = "cell"
	entryDragDrop = "drag_drop"
	entryCancel   = "cancel"
)

// Config carries the optional collaborators of a Coordinator. Zero values
// fall back to UTC, the default minimum duration and no-op implementations.
type Config struct {
	Location    *time.Location
	MinDuration time.Duration
	Guard       Guard
	Events      Publisher
	Observer    Observer
	Logger      zerolog.Logger
}

// Coordinator is the single place where a candidate appointment is
// validated and, if accepted, persisted. Form submissions, inline cell
// edits and drag-and-drop moves all funnel through it.
type Coordinator struct {
	slots     *SlotValidator
	calendar  *Calendar
	conflicts *ConflictDetector
	directory ProfessionalDirectory
	store     AppointmentStore
	guard     Guard
	events    Publisher
	observer  Observer
	clock     clock.Clock
	loc       *time.Location
	logger    zerolog.Logger
}

func NewCoordinator(directory ProfessionalDirectory, store AppointmentStore, clk clock.Clock, cfg Config) *Coordinator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Guard == nil {
		cfg.Guard = NopGuard{}
	}
	if cfg.Events == nil {
		cfg.Events = nopPublisher{}
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Coordinator{
		slots:     NewSlotValidator(clk, cfg.MinDuration),
		calendar:  NewCalendar(cfg.Location),
		conflicts: NewConflictDetector(store, cfg.Location),
		directory: directory,
		store:     store,
		guard:     cfg.Guard,
		events:    cfg.Events,
		observer:  cfg.Observer,
		clock:     clk,
		loc:       cfg.Location,
		logger:    cfg.Logger.With().Str("component", "scheduling").Logger(),
	}
}

// Location is the clinic time zone used for every wall-clock decision.
func (co *Coordinator) Location() *time.Location { return co.loc }

// ValidateCandidate runs the slot, availability and conflict stages in order
// and returns the first rejection. The error is non-nil only when a
// collaborator fails.
func (co *Coordinator) ValidateCandidate(ctx context.Context, c Candidate) (Outcome, error) {
	return co.validate(ctx, entryValidate, c)
}

// AttemptSchedule validates c under the booking guard and persists it when
// accepted. A rejected candidate is never written.
func (co *Coordinator) AttemptSchedule(ctx context.Context, c Candidate) (*Appointment, Outcome, error) {
	return co.attempt(ctx, entryAttempt, c)
}

// ProbeAvailability answers the calendar question alone for one instant.
func (co *Coordinator) ProbeAvailability(ctx context.Context, professionalID uuid.UUID, at time.Time) (Outcome, error) {
	p, err := co.lookup(ctx, professionalID)
	if err != nil {
		return Outcome{}, err
	}
	return co.calendar.IsAvailable(p, at), nil
}

func (co *Coordinator) validate(ctx context.Context, entry string, c Candidate) (Outcome, error) {
	began := time.Now()
	out, err := co.evaluate(ctx, c)
	if err != nil {
		co.observer.ObserveFailure(entry)
		co.logger.Error().Err(err).
			Str("entry", entry).
			Str("professional_id", c.ProfessionalID.String()).
			Msg("candidate validation failed")
		return Outcome{}, err
	}
	co.observer.ObserveValidation(entry, string(out.Stage), string(out.Reason), out.Accepted, time.Since(began))
	if !out.Accepted {
		co.logger.Debug().
			Str("entry", entry).
			Str("professional_id", c.ProfessionalID.String()).
			Str("reason", string(out.Reason)).
			Msg(out.Message)
	}
	return out, nil
}

func (co *Coordinator) evaluate(ctx context.Context, c Candidate) (Outcome, error) {
	if out := co.slots.Validate(c.Start, c.End); !out.Accepted {
		return out, nil
	}
	p, err := co.lookup(ctx, c.ProfessionalID)
	if err != nil {
		return Outcome{}, err
	}
	if out := co.calendar.IsAvailable(p, c.Start); !out.Accepted {
		return out, nil
	}
	conflict, err := co.conflicts.HasConflict(ctx, p, c.Start, c.End, c.ExcludeID)
	if err != nil {
		return Outcome{}, storeFailure("conflict check", err)
	}
	return conflict.Outcome(), nil
}

func (co *Coordinator) lookup(ctx context.Context, id uuid.UUID) (*professional.Professional, error) {
	p, err := co.directory.GetProfessional(ctx, id)
	if err != nil {
		if errors.Is(err, professional.ErrNotFound) || errors.Is(err, ErrProfessionalNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfessionalNotFound, id)
		}
		return nil, storeFailure("load professional", err)
	}
	return p, nil
}

func (co *Coordinator) attempt(ctx context.Context, entry string, c Candidate) (*Appointment, Outcome, error) {
	release, err := co.guard.Acquire(ctx, guardKey(c.ProfessionalID, DayOf(c.Start, co.loc)))
	if err != nil {
		if errors.Is(err, ErrGuardBusy) {
			return nil, Outcome{}, err
		}
		return nil, Outcome{}, storeFailure("booking guard", err)
	}
	defer release()

	out, err := co.validate(ctx, entry, c)
	if err != nil || !out.Accepted {
		return nil, out, err
	}

	a := c.appointment()
	event := EventAppointmentCreated
	if c.ExcludeID == nil {
		err = co.store.Create(ctx, a)
	} else {
		event = EventAppointmentUpdated
		if a.IsCancelled() {
			event = EventAppointmentCancelled
		}
		err = co.store.Update(ctx, a)
	}
	if err != nil {
		co.observer.ObserveFailure(entry)
		co.logger.Error().Err(err).
			Str("entry", entry).
			Str("appointment_id", a.ID.String()).
			Msg("saving appointment failed")
		return nil, Outcome{}, storeFailure("save appointment", err)
	}
	co.publish(ctx, event, a)
	return a, out, nil
}

// writeThrough persists a field change that cannot affect the time slot.
func (co *Coordinator) writeThrough(ctx context.Context, entry string, a *Appointment, event string) (*Appointment, error) {
	if err := co.store.Update(ctx, a); err != nil {
		co.observer.ObserveFailure(entry)
		return nil, storeFailure("save appointment", err)
	}
	co.publish(ctx, event, a)
	return a, nil
}

func (co *Coordinator) publish(ctx context.Context, eventType string, a *Appointment) {
	evt := Event{
		ID:          uuid.New(),
		Type:        eventType,
		OccurredAt:  co.clock.Now().UTC(),
		Appointment: a,
	}
	if err := co.events.Publish(ctx, eventType, evt); err != nil {
		co.logger.Warn().Err(err).
			Str("event", eventType).
			Str("appointment_id", a.ID.String()).
			Msg("publishing appointment event failed")
	}
}

// Get returns one appointment.
func (co *Coordinator) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := co.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeFailure("load appointment", err)
	}
	return a, nil
}

// ListDay returns the professional's bookings for a local calendar date,
// ordered by start.
func (co *Coordinator) ListDay(ctx context.Context, professionalID uuid.UUID, date professional.Date) ([]*Appointment, error) {
	items, err := co.store.ListForProfessionalOnDate(ctx, professionalID, date.Midnight(co.loc))
	if err != nil {
		return nil, storeFailure("list appointments", err)
	}
	sortAppointments(items)
	return items, nil
}

// Cancel marks an appointment cancelled. Cancellation frees the slot and so
// needs no validation.
func (co *Coordinator) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := co.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsCancelled() {
		return a, nil
	}
	a.Status = StatusCancelled
	return co.writeThrough(ctx, entryCancel, a, EventAppointmentCancelled)
}
