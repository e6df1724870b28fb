package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true,
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ProfessionalID uuid.UUID  `db:"professional_id" json:"professional_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProcedureID    *uuid.UUID `db:"procedure_id" json:"procedure_id,omitempty"`
	StartTime      time.Time  `db:"start_time" json:"start_time"`
	EndTime        time.Time  `db:"end_time" json:"end_time"`
	Status         string     `db:"status" json:"status"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	VersionID      int        `db:"version_id" json:"version_id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (a *Appointment) GetVersionID() int { return a.VersionID }

// SetVersionID sets the current version.
func (a *Appointment) SetVersionID(v int) { a.VersionID = v }

// IsCancelled reports whether the appointment is excluded from conflict checks.
func (a *Appointment) IsCancelled() bool { return a.Status == StatusCancelled }

// Duration is the booked length.
func (a *Appointment) Duration() time.Duration { return a.EndTime.Sub(a.StartTime) }

// Candidate is a proposed appointment interval plus the fields that will be
// persisted if it is accepted.
type Candidate struct {
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	ProcedureID    *uuid.UUID
	Start          time.Time
	End            time.Time
	Status         string
	Notes          *string
	// ExcludeID is the appointment being edited; it never conflicts with itself.
	ExcludeID *uuid.UUID
	// VersionID guards updates against concurrent edits.
	VersionID int
}

// candidateFrom seeds a Candidate with every field of an existing appointment.
func candidateFrom(a *Appointment) Candidate {
	id := a.ID
	return Candidate{
		ProfessionalID: a.ProfessionalID,
		PatientID:      a.PatientID,
		ProcedureID:    a.ProcedureID,
		Start:          a.StartTime,
		End:            a.EndTime,
		Status:         a.Status,
		Notes:          a.Notes,
		ExcludeID:      &id,
		VersionID:      a.VersionID,
	}
}

func (c Candidate) appointment() *Appointment {
	a := &Appointment{
		ProfessionalID: c.ProfessionalID,
		PatientID:      c.PatientID,
		ProcedureID:    c.ProcedureID,
		StartTime:      c.Start,
		EndTime:        c.End,
		Status:         c.Status,
		Notes:          c.Notes,
		VersionID:      c.VersionID,
	}
	if c.ExcludeID != nil {
		a.ID = *c.ExcludeID
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	return a
}

// Stage names the validation step that produced an outcome.
type Stage string

const (
	StageSlot         Stage = "slot"
	StageAvailability Stage = "availability"
	StageConflict     Stage = "conflict"
)

// ReasonCode identifies why a candidate was rejected.
type ReasonCode string

const (
	ReasonStartAfterEnd       ReasonCode = "start_after_end"
	ReasonPastTime            ReasonCode = "past_time"
	ReasonMinDuration         ReasonCode = "min_duration"
	ReasonOnVacation          ReasonCode = "on_vacation"
	ReasonNotWorkingDay       ReasonCode = "not_working_day"
	ReasonOutsideShift        ReasonCode = "outside_shift"
	ReasonDuringBreak         ReasonCode = "during_break"
	ReasonBreakConflict       ReasonCode = "break_conflict"
	ReasonVacationConflict    ReasonCode = "vacation_conflict"
	ReasonAppointmentConflict ReasonCode = "appointment_conflict"
)

// Outcome is the result of validating a candidate. Rejections are ordinary
// values, not errors.
type Outcome struct {
	Accepted bool       `json:"accepted"`
	Stage    Stage      `json:"stage,omitempty"`
	Reason   ReasonCode `json:"reason,omitempty"`
	Message  string     `json:"message,omitempty"`
}

func accepted() Outcome { return Outcome{Accepted: true} }

func rejected(stage Stage, reason ReasonCode, message string) Outcome {
	return Outcome{Stage: stage, Reason: reason, Message: message}
}

// DayRange is a half-open local calendar day [Start, End).
type DayRange struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the local calendar day containing t.
func DayOf(t time.Time, loc *time.Location) DayRange {
	l := t.In(loc)
	start := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
	return DayRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the day.
func (d DayRange) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}
