package professional

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

const fullDoc = `{
	"working_days": [false, true, true, true, true, true, false],
	"primary_shift": {"start": "08:00", "end": "12:00"},
	"secondary_shift": {"start": "13:00", "end": "18:00"},
	"breaks": [{"start": "10:00", "end": "10:15"}],
	"vacation": {"active": true, "start": "2025-06-01", "end": "2025-06-10"},
	"weekend_override": {"active": true, "start": "09:00", "end": "13:00"}
}`

func TestParseAvailability_Full(t *testing.T) {
	a, err := ParseAvailability([]byte(fullDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.WorkingDays[time.Sunday] || !a.WorkingDays[time.Monday] || a.WorkingDays[time.Saturday] {
		t.Errorf("unexpected working days: %v", a.WorkingDays)
	}
	if a.PrimaryShift == nil || a.PrimaryShift.Start != NewClockTime(8, 0) || a.PrimaryShift.End != NewClockTime(12, 0) {
		t.Errorf("unexpected primary shift: %+v", a.PrimaryShift)
	}
	if a.SecondaryShift == nil || a.SecondaryShift.String() != "13:00-18:00" {
		t.Errorf("unexpected secondary shift: %+v", a.SecondaryShift)
	}
	if len(a.Breaks) != 1 || a.Breaks[0].String() != "10:00-10:15" {
		t.Errorf("unexpected breaks: %+v", a.Breaks)
	}
	if a.Vacation == nil || !a.Vacation.Active || a.Vacation.Start.String() != "2025-06-01" || a.Vacation.End.String() != "2025-06-10" {
		t.Errorf("unexpected vacation: %+v", a.Vacation)
	}
	if a.WeekendOverride == nil || !a.WeekendOverride.Active || a.WeekendOverride.String() != "09:00-13:00" {
		t.Errorf("unexpected weekend override: %+v", a.WeekendOverride)
	}
}

func TestParseAvailability_SerializedFields(t *testing.T) {
	doc := `{
		"working_days": "[false,true,true,true,true,true,false]",
		"primary_shift": "{\"start\":\"08.00\",\"end\":\"12:00:00\"}",
		"breaks": "[]",
		"vacation": "null"
	}`
	a, err := ParseAvailability([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.WorkingDays[time.Friday] {
		t.Error("expected friday to be a working day")
	}
	if a.PrimaryShift == nil || a.PrimaryShift.String() != "08:00-12:00" {
		t.Errorf("unexpected primary shift: %+v", a.PrimaryShift)
	}
	if a.Vacation != nil {
		t.Errorf("expected no vacation, got %+v", a.Vacation)
	}
}

func TestParseAvailability_WholeDocumentAsString(t *testing.T) {
	wrapped, _ := json.Marshal(fullDoc)
	a, err := ParseAvailability(wrapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.PrimaryShift == nil {
		t.Fatal("expected primary shift")
	}
}

func TestParseAvailability_Empty(t *testing.T) {
	for _, in := range []string{"", "null", "  "} {
		a, err := ParseAvailability([]byte(in))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if a.PrimaryShift != nil || a.WorkingDays[time.Monday] {
			t.Errorf("expected zero availability for %q", in)
		}
	}
}

func TestParseAvailability_Invalid(t *testing.T) {
	cases := map[string]string{
		"short working days": `{"working_days":[true,true]}`,
		"bad clock":          `{"primary_shift":{"start":"25:00","end":"26:00"}}`,
		"inverted shift":     `{"primary_shift":{"start":"12:00","end":"08:00"}}`,
		"inverted break":     `{"breaks":[{"start":"10:30","end":"10:00"}]}`,
		"inverted vacation":  `{"vacation":{"active":true,"start":"2025-06-10","end":"2025-06-01"}}`,
		"vacation no dates":  `{"vacation":{"active":true}}`,
		"malformed":          `{"working_days":`,
		"broken serialized":  `{"breaks":"[{"}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAvailability([]byte(doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidAvailability) {
				t.Errorf("expected ErrInvalidAvailability, got %v", err)
			}
		})
	}
}

func TestAvailability_JSONRoundTripThroughProfessional(t *testing.T) {
	var p Professional
	body := `{"name":"Dr. Ana","active":true,"availability":` + fullDoc + `}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Professional
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("unexpected error on re-decode: %v", err)
	}
	if again.Availability.Vacation == nil || again.Availability.Vacation.End.String() != "2025-06-10" {
		t.Errorf("vacation lost in round trip: %+v", again.Availability.Vacation)
	}
	if len(again.Availability.Breaks) != 1 {
		t.Errorf("breaks lost in round trip: %+v", again.Availability.Breaks)
	}
}
