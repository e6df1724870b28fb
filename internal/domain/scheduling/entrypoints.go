package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/professional"
)

// FormSubmission is the appointment form: a date, a wall-clock time and a
// duration, interpreted in the clinic location.
type FormSubmission struct {
	AppointmentID   *uuid.UUID `json:"-"`
	ProfessionalID  uuid.UUID  `json:"professional_id" validate:"required"`
	PatientID       uuid.UUID  `json:"patient_id" validate:"required"`
	ProcedureID     *uuid.UUID `json:"procedure_id,omitempty"`
	Date            string     `json:"date" validate:"required"`
	Time            string     `json:"time" validate:"required"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed completed cancelled no_show"`
	Notes           *string    `json:"notes,omitempty"`
	VersionID       int        `json:"version_id,omitempty"`
}

// Editable grid columns.
const (
	FieldTime         = "time"
	FieldProfessional = "professional"
	FieldProcedure    = "procedure"
	FieldStatus       = "status"
	FieldNotes        = "notes"
)

// CellEdit is a single-field change from the agenda grid.
type CellEdit struct {
	AppointmentID uuid.UUID `json:"-"`
	Field         string    `json:"field" validate:"required,oneof=time professional procedure status notes"`
	Value         string    `json:"value"`
	VersionID     int       `json:"version_id,omitempty"`
}

// DragDrop moves an appointment to a new start and/or professional while
// keeping its duration.
type DragDrop struct {
	AppointmentID  uuid.UUID  `json:"-"`
	Start          time.Time  `json:"start" validate:"required_without=ProfessionalID"`
	ProfessionalID *uuid.UUID `json:"professional_id,omitempty"`
	VersionID      int        `json:"version_id,omitempty"`
}

// SubmitForm creates an appointment, or edits one when AppointmentID is set.
func (co *Coordinator) SubmitForm(ctx context.Context, f FormSubmission) (*Appointment, Outcome, error) {
	d, err := professional.ParseDate(f.Date)
	if err != nil {
		return nil, Outcome{}, invalidInput("date: %v", err)
	}
	ct, err := professional.ParseClockTime(f.Time)
	if err != nil {
		return nil, Outcome{}, invalidInput("time: %v", err)
	}
	start := ct.On(d.Midnight(co.loc))
	c := Candidate{
		ProfessionalID: f.ProfessionalID,
		PatientID:      f.PatientID,
		ProcedureID:    f.ProcedureID,
		Start:          start,
		End:            start.Add(time.Duration(f.DurationMinutes) * time.Minute),
		Status:         f.Status,
		Notes:          f.Notes,
		VersionID:      f.VersionID,
	}
	if f.AppointmentID != nil {
		existing, err := co.editable(ctx, *f.AppointmentID, f.VersionID)
		if err != nil {
			return nil, Outcome{}, err
		}
		c.ExcludeID = &existing.ID
		c.VersionID = existing.VersionID
		if c.Status == "" {
			c.Status = existing.Status
		}
	}
	return co.attempt(ctx, entryForm, c)
}

// EditCell applies one grid cell change. Time and professional changes keep
// the duration and are validated, as is moving a cancelled appointment back
// to a live status; the other columns are written through.
func (co *Coordinator) EditCell(ctx context.Context, e CellEdit) (*Appointment, Outcome, error) {
	existing, err := co.editable(ctx, e.AppointmentID, e.VersionID)
	if err != nil {
		return nil, Outcome{}, err
	}
	c := candidateFrom(existing)
	value := strings.TrimSpace(e.Value)

	switch e.Field {
	case FieldTime:
		start, err := co.parseCellTime(value, existing.StartTime)
		if err != nil {
			return nil, Outcome{}, err
		}
		c.Start = start
		c.End = start.Add(existing.Duration())
		return co.attempt(ctx, entryCell, c)
	case FieldProfessional:
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, Outcome{}, invalidInput("professional: %v", err)
		}
		c.ProfessionalID = id
		return co.attempt(ctx, entryCell, c)
	case FieldProcedure:
		if value == "" {
			existing.ProcedureID = nil
		} else {
			id, err := uuid.Parse(value)
			if err != nil {
				return nil, Outcome{}, invalidInput("procedure: %v", err)
			}
			existing.ProcedureID = &id
		}
	case FieldStatus:
		if !validAppointmentStatuses[value] {
			return nil, Outcome{}, invalidInput("unknown status %q", value)
		}
		if existing.IsCancelled() && value != StatusCancelled {
			// Reactivation reclaims a slot that may have been rebooked since.
			c.Status = value
			return co.attempt(ctx, entryCell, c)
		}
		existing.Status = value
	case FieldNotes:
		if value == "" {
			existing.Notes = nil
		} else {
			existing.Notes = &e.Value
		}
	default:
		return nil, Outcome{}, invalidInput("field %q is not editable", e.Field)
	}

	event := EventAppointmentUpdated
	if existing.IsCancelled() {
		event = EventAppointmentCancelled
	}
	a, err := co.writeThrough(ctx, entryCell, existing, event)
	if err != nil {
		return nil, Outcome{}, err
	}
	return a, accepted(), nil
}

// Reschedule handles a drag-and-drop move on the agenda.
func (co *Coordinator) Reschedule(ctx context.Context, m DragDrop) (*Appointment, Outcome, error) {
	existing, err := co.editable(ctx, m.AppointmentID, m.VersionID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if m.Start.IsZero() && m.ProfessionalID == nil {
		return nil, Outcome{}, invalidInput("move needs a start or a professional")
	}
	c := candidateFrom(existing)
	if !m.Start.IsZero() {
		c.Start = m.Start
		c.End = m.Start.Add(existing.Duration())
	}
	if m.ProfessionalID != nil {
		c.ProfessionalID = *m.ProfessionalID
	}
	return co.attempt(ctx, entryDragDrop, c)
}

// editable loads the appointment being changed and rejects stale versions
// early. A zero version skips the check.
func (co *Coordinator) editable(ctx context.Context, id uuid.UUID, version int) (*Appointment, error) {
	existing, err := co.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != 0 && version != existing.VersionID {
		return nil, ErrVersionConflict
	}
	return existing, nil
}

// parseCellTime accepts an RFC 3339 instant or a wall-clock time that keeps
// the appointment's current local date.
func (co *Coordinator) parseCellTime(value string, current time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	ct, err := professional.ParseClockTime(value)
	if err != nil {
		return time.Time{}, invalidInput("time: %v", err)
	}
	return ct.On(DayOf(current, co.loc).Start), nil
}
