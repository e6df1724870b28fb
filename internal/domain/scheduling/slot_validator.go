package scheduling

import (
	"fmt"
	"time"

	"github.com/clinic/clinic/internal/platform/clock"
)

// DefaultMinDuration is the shortest bookable appointment.
const DefaultMinDuration = 15 * time.Minute

// SlotValidator checks the structural rules of a time range. It never touches
// the network.
type SlotValidator struct {
	clock       clock.Clock
	minDuration time.Duration
}

func NewSlotValidator(clk clock.Clock, minDuration time.Duration) *SlotValidator {
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	return &SlotValidator{clock: clk, minDuration: minDuration}
}

// Validate applies the rules in order and reports the first failure.
func (v *SlotValidator) Validate(start, end time.Time) Outcome {
	if !start.Before(end) {
		return rejected(StageSlot, ReasonStartAfterEnd, "start must precede end")
	}
	if start.Before(v.clock.Now()) {
		return rejected(StageSlot, ReasonPastTime, "cannot schedule in the past")
	}
	if end.Sub(start) < v.minDuration {
		return rejected(StageSlot, ReasonMinDuration,
			fmt.Sprintf("minimum duration is %d minutes", int(v.minDuration/time.Minute)))
	}
	return accepted()
}
