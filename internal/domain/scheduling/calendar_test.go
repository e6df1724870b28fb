package scheduling

import (
	"strings"
	"testing"
	"time"

	"github.com/clinic/clinic/internal/domain/professional"
)

func TestCalendar_WorkingHours(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()

	tests := []struct {
		name    string
		instant time.Time
		reason  ReasonCode
	}{
		{"inside shift", at(monday, 9, 0), ""},
		{"shift start inclusive", at(monday, 8, 0), ""},
		{"shift end inclusive", at(monday, 18, 0), ""},
		{"before shift", at(monday, 7, 59), ReasonOutsideShift},
		{"after shift", at(monday, 18, 1), ReasonOutsideShift},
		{"break start inclusive", at(monday, 12, 0), ReasonDuringBreak},
		{"inside break", at(monday, 12, 30), ReasonDuringBreak},
		{"break end inclusive", at(monday, 13, 0), ReasonDuringBreak},
		{"after break", at(monday, 13, 1), ""},
		{"saturday", at(saturday, 9, 0), ReasonNotWorkingDay},
		{"sunday", at(saturday.AddDate(0, 0, 1), 9, 0), ReasonNotWorkingDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := cal.IsAvailable(p, tt.instant)
			if out.Reason != tt.reason {
				t.Fatalf("expected %q, got %q (%s)", tt.reason, out.Reason, out.Message)
			}
			if out.Accepted != (tt.reason == "") {
				t.Errorf("accepted = %v", out.Accepted)
			}
			if !out.Accepted && out.Stage != StageAvailability {
				t.Errorf("expected availability stage, got %q", out.Stage)
			}
		})
	}
}

func TestCalendar_MorningShiftWithBreak(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()
	shift := window(9, 0, 12, 0)
	p.Availability.PrimaryShift = &shift
	p.Availability.SecondaryShift = nil
	p.Availability.Breaks = []professional.Window{window(10, 0, 10, 30)}

	tests := []struct {
		name    string
		instant time.Time
		reason  ReasonCode
	}{
		{"during break", at(monday, 10, 15), ReasonDuringBreak},
		{"before break", at(monday, 9, 45), ""},
		{"before shift", at(monday, 8, 59), ReasonOutsideShift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := cal.IsAvailable(p, tt.instant)
			if out.Reason != tt.reason {
				t.Fatalf("expected %q, got %q (%s)", tt.reason, out.Reason, out.Message)
			}
			if out.Accepted != (tt.reason == "") {
				t.Errorf("accepted = %v", out.Accepted)
			}
		})
	}
}

func TestCalendar_Messages(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()

	out := cal.IsAvailable(p, at(saturday, 9, 0))
	if !strings.Contains(out.Message, "Dr. Ana") || !strings.Contains(out.Message, "Saturday") {
		t.Errorf("unexpected message %q", out.Message)
	}
	out = cal.IsAvailable(p, at(monday, 19, 0))
	if !strings.Contains(out.Message, "08:00-18:00") {
		t.Errorf("expected shift in message, got %q", out.Message)
	}
	out = cal.IsAvailable(p, at(monday, 12, 30))
	if !strings.Contains(out.Message, "12:00-13:00") {
		t.Errorf("expected break in message, got %q", out.Message)
	}
}

func TestCalendar_SecondaryShift(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()
	morning, afternoon := window(8, 0, 12, 0), window(14, 0, 18, 0)
	p.Availability.PrimaryShift = &morning
	p.Availability.SecondaryShift = &afternoon
	p.Availability.Breaks = nil

	if out := cal.IsAvailable(p, at(monday, 13, 0)); out.Reason != ReasonOutsideShift {
		t.Errorf("expected outside_shift between shifts, got %+v", out)
	}
	if out := cal.IsAvailable(p, at(monday, 15, 0)); !out.Accepted {
		t.Errorf("expected secondary shift to admit 15:00, got %+v", out)
	}
}

func TestCalendar_NoShiftConfigured(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()
	p.Availability.PrimaryShift = nil

	out := cal.IsAvailable(p, at(monday, 9, 0))
	if out.Reason != ReasonOutsideShift {
		t.Fatalf("expected outside_shift, got %+v", out)
	}
	if !strings.Contains(out.Message, "no shift configured") {
		t.Errorf("unexpected message %q", out.Message)
	}
}

func TestCalendar_WeekendOverride(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()
	p.Availability.WeekendOverride = &professional.WeekendOverride{Active: true, Window: window(9, 0, 13, 0)}

	tests := []struct {
		name    string
		instant time.Time
		reason  ReasonCode
	}{
		{"saturday inside", at(saturday, 10, 0), ""},
		{"saturday start inclusive", at(saturday, 9, 0), ""},
		{"saturday end inclusive", at(saturday, 13, 0), ""},
		{"saturday after", at(saturday, 13, 1), ReasonNotWorkingDay},
		{"sunday inside", at(saturday.AddDate(0, 0, 1), 10, 0), ""},
		// The override window bypasses shift and break checks entirely.
		{"saturday lunch", at(saturday, 12, 30), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := cal.IsAvailable(p, tt.instant)
			if out.Reason != tt.reason {
				t.Errorf("expected %q, got %q (%s)", tt.reason, out.Reason, out.Message)
			}
		})
	}
}

func TestCalendar_WeekendOverrideIgnoredOnWeekdays(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()
	p.Availability.WorkingDays[time.Wednesday] = false
	p.Availability.WeekendOverride = &professional.WeekendOverride{Active: true, Window: window(9, 0, 13, 0)}

	wednesday := monday.AddDate(0, 0, 2)
	if out := cal.IsAvailable(p, at(wednesday, 10, 0)); out.Reason != ReasonNotWorkingDay {
		t.Errorf("expected not_working_day on a weekday off, got %+v", out)
	}

	p.Availability.WeekendOverride.Active = false
	if out := cal.IsAvailable(p, at(saturday, 10, 0)); out.Reason != ReasonNotWorkingDay {
		t.Errorf("expected inactive override to be ignored, got %+v", out)
	}
}

func TestCalendar_Vacation(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()
	// Configured 06-04..06-05 blocks 06-03..06-04 once shifted a day earlier.
	p.Availability.Vacation = &professional.Vacation{
		Active: true,
		Start:  professional.Date{Year: 2030, Month: time.June, Day: 4},
		End:    professional.Date{Year: 2030, Month: time.June, Day: 5},
	}

	tests := []struct {
		name    string
		instant time.Time
		reason  ReasonCode
	}{
		{"first adjusted day", at(monday, 9, 0), ReasonOnVacation},
		{"last adjusted day", at(monday.AddDate(0, 0, 1), 9, 0), ReasonOnVacation},
		{"configured end day is free", at(monday.AddDate(0, 0, 2), 9, 0), ""},
		{"vacation wins over shift", at(monday, 20, 0), ReasonOnVacation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := cal.IsAvailable(p, tt.instant)
			if out.Reason != tt.reason {
				t.Errorf("expected %q, got %q (%s)", tt.reason, out.Reason, out.Message)
			}
		})
	}

	out := cal.IsAvailable(p, at(monday, 9, 0))
	if !strings.Contains(out.Message, "2030-06-04") || !strings.Contains(out.Message, "2030-06-05") {
		t.Errorf("expected configured dates in message, got %q", out.Message)
	}

	p.Availability.Vacation.Active = false
	if out := cal.IsAvailable(p, at(monday, 9, 0)); !out.Accepted {
		t.Errorf("inactive vacation should be ignored, got %+v", out)
	}
}

func TestCalendar_VacationBeatsNonWorkingDay(t *testing.T) {
	cal := NewCalendar(time.UTC)
	p := weekdayProfessional()
	p.Availability.Vacation = &professional.Vacation{
		Active: true,
		Start:  professional.Date{Year: 2030, Month: time.June, Day: 9},
		End:    professional.Date{Year: 2030, Month: time.June, Day: 9},
	}
	if out := cal.IsAvailable(p, at(saturday, 9, 0)); out.Reason != ReasonOnVacation {
		t.Errorf("expected on_vacation, got %+v", out)
	}
}

func TestCalendar_UsesClinicLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	cal := NewCalendar(loc)
	p := weekdayProfessional()

	// 11:30 UTC is 08:30 local.
	if out := cal.IsAvailable(p, time.Date(2030, 6, 3, 11, 30, 0, 0, time.UTC)); !out.Accepted {
		t.Errorf("expected 08:30 local to be inside the shift, got %+v", out)
	}
	// 10:30 UTC is 07:30 local.
	if out := cal.IsAvailable(p, time.Date(2030, 6, 3, 10, 30, 0, 0, time.UTC)); out.Reason != ReasonOutsideShift {
		t.Errorf("expected outside_shift at 07:30 local, got %+v", out)
	}
	// Saturday 01:00 UTC is still Friday 22:00 local.
	if out := cal.IsAvailable(p, time.Date(2030, 6, 8, 1, 0, 0, 0, time.UTC)); out.Reason != ReasonOutsideShift {
		t.Errorf("expected Friday evening to be outside_shift, got %+v", out)
	}
}
