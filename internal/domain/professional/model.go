package professional

import (
	"time"

	"github.com/google/uuid"
)

// Professional maps to the professionals table.
type Professional struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Name         string       `db:"name" json:"name" validate:"required"`
	Specialty    *string      `db:"specialty" json:"specialty,omitempty"`
	Active       bool         `db:"active" json:"active"`
	Availability Availability `db:"availability" json:"availability"`
	VersionID    int          `db:"version_id" json:"version_id"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (p *Professional) GetVersionID() int { return p.VersionID }

// SetVersionID sets the current version.
func (p *Professional) SetVersionID(v int) { p.VersionID = v }

// Availability is the working-hours configuration of a professional. It is
// built by ParseAvailability (or JSON decoding, which delegates to it) and is
// read-only to the scheduling core.
type Availability struct {
	// WorkingDays is indexed by time.Weekday.
	WorkingDays     [7]bool
	PrimaryShift    *Window
	SecondaryShift  *Window
	Breaks          []Window
	Vacation        *Vacation
	WeekendOverride *WeekendOverride
}

// Window is a wall-clock range. Containment is inclusive on both ends.
type Window struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Contains reports whether c falls within [Start, End].
func (w Window) Contains(c ClockTime) bool {
	return c >= w.Start && c <= w.End
}

// On places the window on the calendar day of day, in loc.
func (w Window) On(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return w.Start.On(midnight), w.End.On(midnight)
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Vacation blocks whole calendar days.
type Vacation struct {
	Active bool `json:"active"`
	Start  Date `json:"start"`
	End    Date `json:"end"`
}

// Covers reports whether the vacation blocks calendar date d. Both configured
// bounds are shifted one day earlier before the inclusive comparison, which is
// how stored vacations have always been interpreted by the agenda.
func (v *Vacation) Covers(d Date) bool {
	if v == nil || !v.Active {
		return false
	}
	from := v.Start.AddDays(-1)
	to := v.End.AddDays(-1)
	return !d.Before(from) && !d.After(to)
}

// WeekendOverride opens an alternate window on Saturdays and Sundays that are
// otherwise non-working days.
type WeekendOverride struct {
	Active bool `json:"active"`
	Window
}

// Applies reports whether the override opens weekday wd at wall-clock c.
func (o *WeekendOverride) Applies(wd time.Weekday, c ClockTime) bool {
	if o == nil || !o.Active {
		return false
	}
	if wd != time.Saturday && wd != time.Sunday {
		return false
	}
	return o.Contains(c)
}

// Shifts returns the configured shift windows in order.
func (a Availability) Shifts() []Window {
	var out []Window
	if a.PrimaryShift != nil {
		out = append(out, *a.PrimaryShift)
	}
	if a.SecondaryShift != nil {
		out = append(out, *a.SecondaryShift)
	}
	return out
}

// WithinShift reports whether c falls in the primary or secondary shift.
func (a Availability) WithinShift(c ClockTime) bool {
	for _, s := range a.Shifts() {
		if s.Contains(c) {
			return true
		}
	}
	return false
}

// BreakAt returns the first break containing c.
func (a Availability) BreakAt(c ClockTime) (Window, bool) {
	for _, b := range a.Breaks {
		if b.Contains(c) {
			return b, true
		}
	}
	return Window{}, false
}
