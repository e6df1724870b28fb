package professional

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidAvailability is wrapped by every availability parsing failure.
var ErrInvalidAvailability = errors.New("invalid availability")

// availabilityWire is the stored/transport shape of Availability.
type availabilityWire struct {
	WorkingDays     []bool           `json:"working_days"`
	PrimaryShift    *Window          `json:"primary_shift,omitempty"`
	SecondaryShift  *Window          `json:"secondary_shift,omitempty"`
	Breaks          []Window         `json:"breaks"`
	Vacation        *Vacation        `json:"vacation,omitempty"`
	WeekendOverride *WeekendOverride `json:"weekend_override,omitempty"`
}

// ParseAvailability decodes the availability document kept by the directory.
// Older clients stored some top-level fields as serialized JSON text (for
// example "working_days": "[false,true,...]"); those are unwrapped here so the
// rest of the system only ever sees the typed value.
func ParseAvailability(raw []byte) (Availability, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Availability{}, nil
	}

	// The whole document may itself be a JSON string.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Availability{}, fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
		}
		return ParseAvailability([]byte(inner))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
	}
	for k, v := range fields {
		unwrapped, err := unwrapSerialized(v)
		if err != nil {
			return Availability{}, fmt.Errorf("%w: field %s: %v", ErrInvalidAvailability, k, err)
		}
		fields[k] = unwrapped
	}
	normalized, err := json.Marshal(fields)
	if err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
	}

	var w availabilityWire
	if err := json.Unmarshal(normalized, &w); err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
	}
	return w.toAvailability()
}

// unwrapSerialized turns "\"{...}\"" or "\"[...]\"" into the embedded JSON.
func unwrapSerialized(v json.RawMessage) (json.RawMessage, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || v[0] != '"' {
		return v, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 {
		return json.RawMessage("null"), nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")) {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("malformed serialized value")
		}
		return trimmed, nil
	}
	return v, nil
}

func (w availabilityWire) toAvailability() (Availability, error) {
	var a Availability
	if w.WorkingDays != nil {
		if len(w.WorkingDays) != 7 {
			return Availability{}, fmt.Errorf("%w: working_days must have 7 entries, got %d", ErrInvalidAvailability, len(w.WorkingDays))
		}
		copy(a.WorkingDays[:], w.WorkingDays)
	}
	a.PrimaryShift = w.PrimaryShift
	a.SecondaryShift = w.SecondaryShift
	a.Breaks = w.Breaks
	a.Vacation = w.Vacation
	a.WeekendOverride = w.WeekendOverride
	if err := a.Validate(); err != nil {
		return Availability{}, err
	}
	return a, nil
}

// Validate checks window ordering and vacation bounds.
func (a Availability) Validate() error {
	check := func(name string, w *Window) error {
		if w != nil && w.Start >= w.End {
			return fmt.Errorf("%w: %s start %s must precede end %s", ErrInvalidAvailability, name, w.Start, w.End)
		}
		return nil
	}
	if err := check("primary_shift", a.PrimaryShift); err != nil {
		return err
	}
	if err := check("secondary_shift", a.SecondaryShift); err != nil {
		return err
	}
	for i := range a.Breaks {
		if err := check(fmt.Sprintf("breaks[%d]", i), &a.Breaks[i]); err != nil {
			return err
		}
	}
	if a.WeekendOverride != nil {
		if err := check("weekend_override", &a.WeekendOverride.Window); err != nil {
			return err
		}
	}
	if v := a.Vacation; v != nil {
		if v.Start.IsZero() || v.End.IsZero() {
			if v.Active {
				return fmt.Errorf("%w: active vacation needs start and end", ErrInvalidAvailability)
			}
		} else if v.End.Before(v.Start) {
			return fmt.Errorf("%w: vacation end %s before start %s", ErrInvalidAvailability, v.End, v.Start)
		}
	}
	return nil
}

func (a Availability) MarshalJSON() ([]byte, error) {
	w := availabilityWire{
		WorkingDays:     a.WorkingDays[:],
		PrimaryShift:    a.PrimaryShift,
		SecondaryShift:  a.SecondaryShift,
		Breaks:          a.Breaks,
		Vacation:        a.Vacation,
		WeekendOverride: a.WeekendOverride,
	}
	if w.Breaks == nil {
		w.Breaks = []Window{}
	}
	return json.Marshal(w)
}

func (a *Availability) UnmarshalJSON(data []byte) error {
	parsed, err := ParseAvailability(data)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
