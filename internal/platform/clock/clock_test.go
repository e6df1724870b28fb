package clock

import (
	"testing"
	"time"
)

func TestFixed_SetAndAdvance(t *testing.T) {
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	c := NewFixed(base)
	if !c.Now().Equal(base) {
		t.Fatalf("expected %v, got %v", base, c.Now())
	}

	c.Advance(30 * time.Minute)
	if want := base.Add(30 * time.Minute); !c.Now().Equal(want) {
		t.Errorf("expected %v after advance, got %v", want, c.Now())
	}

	later := base.AddDate(0, 0, 1)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("expected %v after set, got %v", later, c.Now())
	}
}

func TestSystem_Now(t *testing.T) {
	before := time.Now()
	got := System{}.Now()
	if got.Before(before) {
		t.Errorf("system clock went backwards: %v < %v", got, before)
	}
}
