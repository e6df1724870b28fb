package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinic/clinic/internal/domain/professional"
)

// Calendar answers whether a professional is working at a given instant.
// Every wall-clock comparison happens in the clinic location.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// IsAvailable evaluates vacation, working day, weekend override, shifts and
// breaks, in that order. The first terminal rule decides.
func (cal *Calendar) IsAvailable(p *professional.Professional, instant time.Time) Outcome {
	local := instant.In(cal.loc)
	at := professional.ClockOf(local, cal.loc)
	av := p.Availability
	name := displayName(p)

	if av.Vacation.Covers(professional.DateOf(local, cal.loc)) {
		return rejected(StageAvailability, ReasonOnVacation,
			fmt.Sprintf("%s is on vacation from %s to %s", name, av.Vacation.Start, av.Vacation.End))
	}

	wd := local.Weekday()
	if !av.WorkingDays[wd] {
		if av.WeekendOverride.Applies(wd, at) {
			return accepted()
		}
		return rejected(StageAvailability, ReasonNotWorkingDay,
			fmt.Sprintf("%s does not work on %s", name, wd))
	}

	if !av.WithinShift(at) {
		return rejected(StageAvailability, ReasonOutsideShift,
			fmt.Sprintf("%s is outside %s's working hours (%s)", at, name, describeShifts(av)))
	}

	if b, ok := av.BreakAt(at); ok {
		return rejected(StageAvailability, ReasonDuringBreak,
			fmt.Sprintf("%s falls within %s's break (%s)", at, name, b))
	}
	return accepted()
}

func describeShifts(av professional.Availability) string {
	shifts := av.Shifts()
	if len(shifts) == 0 {
		return "no shift configured"
	}
	parts := make([]string, len(shifts))
	for i, s := range shifts {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func displayName(p *professional.Professional) string {
	if p.Name == "" {
		return "the professional"
	}
	return p.Name
}
