package schedule

import (
	"time"

	"github.com/saaga0h/solartone/internal/solar"
)

// Phase identifies where the current instant falls in the solar cycle
type Phase int

const (
	// PhaseHigh is full daytime temperature, sunrise to sunset
	PhaseHigh Phase = iota
	// PhaseToLow is the sunset-to-dusk ramp toward the night temperature
	PhaseToLow
	// PhaseLow is full nighttime temperature, dusk to the next dawn
	PhaseLow
	// PhaseToHigh is the dawn-to-sunrise ramp toward the day temperature
	PhaseToHigh
)

func (p Phase) String() string {
	switch p {
	case PhaseHigh:
		return "high"
	case PhaseToLow:
		return "to-low"
	case PhaseLow:
		return "low"
	case PhaseToHigh:
		return "to-high"
	default:
		return "unknown"
	}
}

// Target returns the color temperature and phase for the given instant.
// Exactly one phase applies for any now inside a valid window:
//
//	now < dawn              -> low
//	dawn <= now < sunrise   -> ramp low -> high
//	sunrise <= now < sunset -> high
//	sunset <= now < dusk    -> ramp high -> low
//	now >= dusk             -> low
func Target(now time.Time, w solar.Window, highTemp, lowTemp int) (int, Phase) {
	switch {
	case now.Before(w.Dawn):
		return lowTemp, PhaseLow
	case now.Before(w.Sunrise):
		return interpolate(now, w.Dawn, w.Sunrise, lowTemp, highTemp), PhaseToHigh
	case now.Before(w.Sunset):
		return highTemp, PhaseHigh
	case now.Before(w.Dusk):
		return interpolate(now, w.Sunset, w.Dusk, highTemp, lowTemp), PhaseToLow
	default:
		return lowTemp, PhaseLow
	}
}

// interpolate ramps linearly between two temperatures over [start, stop)
func interpolate(now, start, stop time.Time, from, to int) int {
	frac := fraction(now, start, stop)
	return from + int(float64(to-from)*frac)
}

// fraction returns the clamped position of now inside [start, stop].
// A zero or negative span counts as completed, so a degenerate
// transition collapses to its end temperature instead of dividing by
// zero.
func fraction(now, start, stop time.Time) float64 {
	span := stop.Sub(start)
	if span <= 0 {
		return 1
	}
	f := float64(now.Sub(start)) / float64(span)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
