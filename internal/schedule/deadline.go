package schedule

import (
	"time"

	"github.com/saaga0h/solartone/internal/solar"
)

const (
	// kelvinStep is the temperature change animated per transition tick
	kelvinStep = 25

	// minStepInterval keeps a zero-length transition span from arming
	// an immediate wakeup loop.
	minStepInterval = time.Second

	// maxStepInterval caps the per-tick sleep so a tiny temperature
	// delta cannot stretch one transition tick arbitrarily.
	maxStepInterval = 5 * time.Minute

	// defaultWake bounds the sleep when the phase is unrecognized; the
	// loop re-evaluates on every wakeup, so correctness only needs the
	// sleep to be finite.
	defaultWake = time.Minute

	dayLength = 24 * time.Hour
)

// NextDeadline returns the next instant the reactor must wake.
//
// Steady phases sleep until their boundary event. PhaseLow sleeps until
// dawn, rolled forward by whole-day multiples when that dawn is already
// past — one day is not enough after a long suspend, the stale dawn may
// be several days old. Transition phases wake every kelvinStep worth of
// the ramp so the animation moves in small steps.
func NextDeadline(phase Phase, w solar.Window, highTemp, lowTemp int, now time.Time) time.Time {
	switch phase {
	case PhaseHigh:
		return w.Sunset
	case PhaseLow:
		deadline := w.Dawn
		if !deadline.After(now) {
			days := int64(now.Sub(deadline)/dayLength) + 1
			deadline = deadline.Add(time.Duration(days) * dayLength)
		}
		return deadline
	case PhaseToHigh:
		return now.Add(stepInterval(w.Sunrise.Sub(w.Dawn), highTemp, lowTemp))
	case PhaseToLow:
		return now.Add(stepInterval(w.Dusk.Sub(w.Sunset), highTemp, lowTemp))
	default:
		return now.Add(defaultWake)
	}
}

// stepInterval sizes one transition tick: the time it takes the ramp to
// move kelvinStep degrees, clamped into [minStepInterval, maxStepInterval]
func stepInterval(span time.Duration, highTemp, lowTemp int) time.Duration {
	diff := highTemp - lowTemp
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 {
		return maxStepInterval
	}

	step := span * kelvinStep / time.Duration(diff)
	if step < minStepInterval {
		return minStepInterval
	}
	if step > maxStepInterval {
		return maxStepInterval
	}
	return step
}
