// Package daemon runs the reactor loop: a single goroutine multiplexing
// the wakeup alarm, the display transport's event stream, and override
// requests. All schedule and registry state is owned by this goroutine;
// there are no locks because there is no concurrent mutation.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/saaga0h/solartone/internal/output"
	"github.com/saaga0h/solartone/internal/schedule"
	"github.com/saaga0h/solartone/internal/solar"
	"github.com/saaga0h/solartone/internal/transport"
	"github.com/saaga0h/solartone/pkg/config"
	"github.com/saaga0h/solartone/pkg/health"
)

// Daemon drives the color temperature schedule against a transport
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	transport transport.Transport
	registry  *output.Registry
	sun       *solar.Schedule
	alarm     Alarm
	announcer *Announcer

	// now is the clock, injectable in tests
	now func() time.Time

	overrides chan OverrideRequest

	lastTemp int
	applied  bool
	armed    time.Time

	overrideTemp  int
	overrideUntil time.Time

	status atomic.Pointer[health.Status]
}

// New creates a daemon over the given transport. The announcer may be
// nil when MQTT is not configured.
func New(cfg *config.Config, tr transport.Transport, announcer *Announcer, logger *slog.Logger) *Daemon {
	var alarm Alarm
	if cfg.TimerMode == "poll" {
		min, max := cfg.PollBounds()
		alarm = NewPollAlarm(min, max)
	} else {
		alarm = NewAbsoluteAlarm()
	}

	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		transport: tr,
		registry:  output.NewRegistry(tr, logger),
		sun:       solar.NewSchedule(cfg, logger),
		alarm:     alarm,
		announcer: announcer,
		now:       time.Now,
		overrides: make(chan OverrideRequest, 8),
	}
}

// Status returns a snapshot for the health endpoint. Safe to call from
// any goroutine.
func (d *Daemon) Status() health.Status {
	if s := d.status.Load(); s != nil {
		return *s
	}
	return health.Status{}
}

// Run executes the reactor loop until the context is cancelled or the
// transport fails fatally.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.transport.Connect(ctx); err != nil {
		return fmt.Errorf("transport connect: %w", err)
	}
	defer d.registry.Close()
	defer d.alarm.Stop()

	if d.announcer != nil {
		if err := d.announcer.SubscribeOverrides(d.overrides); err != nil {
			return err
		}
	}

	if err := d.evaluate(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-d.alarm.C():
			d.armed = time.Time{}
			if err := d.evaluate(); err != nil {
				return err
			}

		case ev, ok := <-d.transport.Events():
			if !ok {
				if err := d.transport.Err(); err != nil {
					return fmt.Errorf("transport: %w", err)
				}
				return nil
			}
			d.handleTransportEvent(ev)
			if err := d.evaluate(); err != nil {
				return err
			}

		case req := <-d.overrides:
			d.handleOverride(req)
			if err := d.evaluate(); err != nil {
				return err
			}
		}
	}
}

// evaluate is the single decision step run on every wakeup: refresh the
// solar window, derive the target temperature, apply when the target
// changed or an output newly became ready, and re-arm the alarm.
// Evaluating twice at the same instant is a no-op the second time.
func (d *Daemon) evaluate() error {
	now := d.now()

	window, err := d.sun.Recompute(now)
	if err != nil {
		return err
	}

	temp, phase := schedule.Target(now, window, d.cfg.HighTemp, d.cfg.LowTemp)
	deadline := schedule.NextDeadline(phase, window, d.cfg.HighTemp, d.cfg.LowTemp, now)

	if d.overrideActive(now) {
		temp = d.overrideTemp
		if d.overrideUntil.Before(deadline) {
			deadline = d.overrideUntil
		}
	}

	force := d.registry.TakeNewlyReady()
	if !d.applied || temp != d.lastTemp || force {
		d.logger.Info("Setting color temperature", "kelvin", temp, "phase", phase.String())
		d.registry.Apply(temp, d.cfg.Gamma)
		d.lastTemp = temp
		d.applied = true
		if d.announcer != nil {
			d.announcer.PublishState(temp, phase.String(), now)
		}
	}

	d.status.Store(&health.Status{
		Temperature:  temp,
		Phase:        phase.String(),
		Outputs:      d.registry.Len(),
		ReadyOutputs: d.registry.Ready(),
	})

	d.arm(now, deadline)
	return nil
}

// arm re-arms the alarm, skipping when the same deadline is already
// armed and pending.
func (d *Daemon) arm(now, deadline time.Time) {
	if !d.armed.IsZero() && d.armed.Equal(deadline) {
		return
	}
	d.alarm.Arm(now, deadline)
	d.armed = deadline
	d.logger.Debug("Armed next wakeup", "deadline", deadline)
}

func (d *Daemon) handleTransportEvent(ev transport.Event) {
	switch ev := ev.(type) {
	case transport.OutputAdded:
		d.registry.Add(ev.ID)
	case transport.OutputRemoved:
		d.registry.Remove(ev.ID)
	case transport.RampSizeAnnounced:
		d.registry.AnnounceRampSize(ev.ID, ev.Size)
	case transport.ControlFailed:
		d.registry.Fail(ev.ID)
	default:
		d.logger.Warn("Ignoring unknown transport event")
	}
	// External activity is the only trigger for retrying outputs that
	// missed gamma negotiation; they are never actively polled.
	d.registry.NegotiatePending()
}

func (d *Daemon) handleOverride(req OverrideRequest) {
	if req.Clear {
		if !d.overrideUntil.IsZero() {
			d.logger.Info("Clearing manual override")
		}
		d.overrideTemp = 0
		d.overrideUntil = time.Time{}
		return
	}
	d.overrideTemp = req.Temperature
	d.overrideUntil = d.now().Add(time.Duration(req.Minutes) * time.Minute)
	d.logger.Info("Manual override active",
		"kelvin", req.Temperature,
		"until", d.overrideUntil.Format(time.RFC3339))
}

// overrideActive reports whether a manual override is in effect,
// clearing it once expired.
func (d *Daemon) overrideActive(now time.Time) bool {
	if d.overrideUntil.IsZero() {
		return false
	}
	if !now.Before(d.overrideUntil) {
		d.logger.Info("Manual override expired")
		d.overrideTemp = 0
		d.overrideUntil = time.Time{}
		return false
	}
	return true
}
