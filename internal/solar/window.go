package solar

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/saaga0h/solartone/pkg/config"
)

// ErrPolarRegion is returned when the configured location has no usable
// dawn/dusk cycle for the requested day (polar day or polar night).
var ErrPolarRegion = errors.New("sun does not rise and set at this location, explicit temperatures cannot be scheduled")

const dayLength = 24 * time.Hour

// Window bounds one solar cycle with absolute instants.
// Dawn and Dusk delimit the warm/cool transitions, Sunrise and Sunset
// the pure-daytime interval: dawn <= sunrise <= sunset <= dusk.
type Window struct {
	Dawn    time.Time
	Sunrise time.Time
	Sunset  time.Time
	Dusk    time.Time
}

// Covers reports whether the window is still valid for the given instant.
// A window stays valid until its dusk has passed.
func (w Window) Covers(now time.Time) bool {
	return !w.Dusk.IsZero() && now.Before(w.Dusk)
}

// Schedule lazily computes and caches the solar window for the
// configured observer location.
type Schedule struct {
	latitude  float64
	longitude float64
	duration  time.Duration
	fixed     bool
	logger    *slog.Logger

	window Window
}

// NewSchedule creates a solar schedule for the configured location
func NewSchedule(cfg *config.Config, logger *slog.Logger) *Schedule {
	return &Schedule{
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		duration:  cfg.Duration(),
		fixed:     !cfg.SolarDuration(),
		logger:    logger,
	}
}

// Recompute returns the solar window covering now, recalculating only
// when the cached window's dusk has passed. The returned window always
// satisfies dusk > now; a location where that cannot hold yields
// ErrPolarRegion.
func (s *Schedule) Recompute(now time.Time) (Window, error) {
	if s.window.Covers(now) {
		return s.window, nil
	}

	day := now.UTC().Truncate(dayLength)
	for i := 0; i < 3; i++ {
		w, err := s.computeDay(day)
		if err != nil {
			return Window{}, err
		}
		if now.Before(w.Dusk) {
			s.window = w
			s.logger.Info("Calculated new sun trajectory",
				"dawn", w.Dawn.Local().Format("15:04"),
				"sunrise", w.Sunrise.Local().Format("15:04"),
				"sunset", w.Sunset.Local().Format("15:04"),
				"dusk", w.Dusk.Local().Format("15:04"))
			return w, nil
		}
		day = day.Add(dayLength)
	}

	// Dusk advances by a full day per iteration, so two steps past the
	// current day must cover any now. Reaching here is a programming
	// error, not a runtime condition.
	return Window{}, fmt.Errorf("solar window failed to advance past %v", now)
}

// computeDay derives the window for one calendar day (UTC midnight)
func (s *Schedule) computeDay(day time.Time) (Window, error) {
	times := suncalc.GetTimes(day.Add(12*time.Hour), s.latitude, s.longitude)

	w := Window{
		Dawn:    times[suncalc.Dawn].Value,
		Sunrise: times[suncalc.Sunrise].Value,
		Sunset:  times[suncalc.Sunset].Value,
		Dusk:    times[suncalc.Dusk].Value,
	}
	if s.fixed {
		w.Dawn = w.Sunrise.Add(-s.duration)
		w.Dusk = w.Sunset.Add(s.duration)
	}

	if !s.plausible(day, w) {
		return Window{}, fmt.Errorf("no solar events on %s at lat %.2f, lon %.2f: %w",
			day.Format("2006-01-02"), s.latitude, s.longitude, ErrPolarRegion)
	}
	return w, nil
}

// plausible rejects degenerate windows. Above the polar circles the
// ephemeris yields undefined sunrise/sunset instants, which show up as
// zero times, wildly out-of-range times, or a collapsed ordering.
func (s *Schedule) plausible(day time.Time, w Window) bool {
	lo := day.Add(-dayLength)
	hi := day.Add(2 * dayLength)
	for _, t := range []time.Time{w.Dawn, w.Sunrise, w.Sunset, w.Dusk} {
		if t.IsZero() || t.Before(lo) || t.After(hi) {
			return false
		}
	}
	if w.Dawn.After(w.Sunrise) || w.Sunrise.After(w.Sunset) || w.Sunset.After(w.Dusk) {
		return false
	}
	// A zero-length transition is allowed, a zero-length day is not.
	return w.Dusk.After(w.Dawn)
}
