package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/professional"
)

// Conflict reports why a candidate interval cannot be booked.
type Conflict struct {
	Found   bool
	Reason  ReasonCode
	Message string
	// With is the existing appointment that overlaps, for appointment_conflict.
	With *Appointment
}

// Outcome converts the conflict into a validation outcome.
func (c Conflict) Outcome() Outcome {
	if !c.Found {
		return accepted()
	}
	return rejected(StageConflict, c.Reason, c.Message)
}

// ConflictDetector checks a candidate interval against breaks, vacation and
// the professional's existing bookings on the same local day.
type ConflictDetector struct {
	store AppointmentStore
	loc   *time.Location
}

func NewConflictDetector(store AppointmentStore, loc *time.Location) *ConflictDetector {
	if loc == nil {
		loc = time.UTC
	}
	return &ConflictDetector{store: store, loc: loc}
}

// HasConflict returns the first conflict found for [start, end). Store
// failures are returned as errors and never reported as conflicts.
func (d *ConflictDetector) HasConflict(ctx context.Context, p *professional.Professional, start, end time.Time, excludeID *uuid.UUID) (Conflict, error) {
	name := displayName(p)
	day := DayOf(start, d.loc)

	for _, b := range p.Availability.Breaks {
		bStart, bEnd := b.On(day.Start, d.loc)
		if overlaps(start, end, bStart, bEnd) {
			return Conflict{
				Found:   true,
				Reason:  ReasonBreakConflict,
				Message: fmt.Sprintf("appointment overlaps %s's break (%s)", name, b),
			}, nil
		}
	}

	date := professional.DateOf(start, d.loc)
	if p.Availability.Vacation.Covers(date) {
		return Conflict{
			Found:   true,
			Reason:  ReasonVacationConflict,
			Message: fmt.Sprintf("%s is on vacation on %s", name, date),
		}, nil
	}

	existing, err := d.store.ListForProfessionalOnDate(ctx, p.ID, day.Start)
	if err != nil {
		return Conflict{}, fmt.Errorf("list appointments for %s on %s: %w", p.ID, date, err)
	}
	sortAppointments(existing)

	for _, a := range existing {
		if a.IsCancelled() {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if overlaps(start, end, a.StartTime, a.EndTime) {
			return Conflict{
				Found:   true,
				Reason:  ReasonAppointmentConflict,
				Message: fmt.Sprintf("conflicts with an existing appointment at %s", a.StartTime.In(d.loc).Format("15:04")),
				With:    a,
			}, nil
		}
	}
	return Conflict{}, nil
}

// overlaps is the half-open interval test: touching ranges do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// sortAppointments orders by start, then id, so the reported conflict does
// not depend on store ordering.
func sortAppointments(items []*Appointment) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartTime.Equal(items[j].StartTime) {
			return items[i].StartTime.Before(items[j].StartTime)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
}
