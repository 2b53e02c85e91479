package schedule

import (
	"testing"
	"time"
)

func TestNextDeadlineSteadyPhases(t *testing.T) {
	w := testWindow()
	now := w.Sunrise.Add(2 * time.Hour)

	if got := NextDeadline(PhaseHigh, w, highTemp, lowTemp, now); !got.Equal(w.Sunset) {
		t.Errorf("high-phase deadline = %v, want sunset %v", got, w.Sunset)
	}

	now = w.Dawn.Add(-2 * time.Hour)
	if got := NextDeadline(PhaseLow, w, highTemp, lowTemp, now); !got.Equal(w.Dawn) {
		t.Errorf("low-phase deadline = %v, want dawn %v", got, w.Dawn)
	}
}

func TestNextDeadlineRollsDawnForwardByWholeDays(t *testing.T) {
	// After a long suspension the cached dawn can be several days in
	// the past; the deadline must land on the next same-time-of-day
	// dawn, not merely dawn plus one day.
	w := testWindow()

	tests := []struct {
		name     string
		now      time.Time
		wantDays int
	}{
		{"cold start at night", w.Dawn.Add(20 * time.Hour), 1},
		{"one day suspended", w.Dawn.Add(30 * time.Hour), 2},
		{"three days suspended", w.Dawn.Add(76 * time.Hour), 4},
		{"exactly at dawn", w.Dawn, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDeadline(PhaseLow, w, highTemp, lowTemp, tt.now)
			want := w.Dawn.Add(time.Duration(tt.wantDays) * 24 * time.Hour)
			if !got.Equal(want) {
				t.Errorf("deadline = %v, want %v", got, want)
			}
			if !got.After(tt.now) {
				t.Errorf("deadline %v not after now %v", got, tt.now)
			}
		})
	}
}

func TestNextDeadlineTransitionStep(t *testing.T) {
	// One-hour ramp over 2500 K at 25 K per tick: 36 second steps
	w := testWindow()
	now := w.Dawn.Add(10 * time.Minute)

	got := NextDeadline(PhaseToHigh, w, highTemp, lowTemp, now)
	if want := now.Add(36 * time.Second); !got.Equal(want) {
		t.Errorf("transition deadline = %v, want %v", got, want)
	}

	now = w.Sunset.Add(10 * time.Minute)
	got = NextDeadline(PhaseToLow, w, highTemp, lowTemp, now)
	if want := now.Add(36 * time.Second); !got.Equal(want) {
		t.Errorf("transition deadline = %v, want %v", got, want)
	}
}

func TestNextDeadlineStepBounds(t *testing.T) {
	w := testWindow()
	now := w.Dawn.Add(time.Minute)

	// A 1 K delta would stretch one tick over the whole ramp; the cap
	// keeps the sleep bounded.
	got := NextDeadline(PhaseToHigh, w, 4001, 4000, now)
	if want := now.Add(maxStepInterval); !got.Equal(want) {
		t.Errorf("capped deadline = %v, want %v", got, want)
	}

	// A collapsed span must still arm a future wakeup
	w.Sunrise = w.Dawn
	got = NextDeadline(PhaseToHigh, w, highTemp, lowTemp, now)
	if want := now.Add(minStepInterval); !got.Equal(want) {
		t.Errorf("floor deadline = %v, want %v", got, want)
	}
}

func TestNextDeadlineUnknownPhase(t *testing.T) {
	w := testWindow()
	now := w.Sunrise

	got := NextDeadline(Phase(99), w, highTemp, lowTemp, now)
	if want := now.Add(defaultWake); !got.Equal(want) {
		t.Errorf("fallback deadline = %v, want %v", got, want)
	}
}
