package daemon

import "time"

// Alarm arms the reactor's next wakeup. The contract is the same for
// every implementation: after Arm(now, deadline) the channel fires no
// later than the deadline. Firing earlier is allowed; the reactor
// re-evaluates on every wakeup, so early wakeups cost a recomputation
// and nothing else.
type Alarm interface {
	C() <-chan time.Time
	Arm(now, deadline time.Time)
	Stop()
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

// absoluteAlarm arms a one-shot timer at the deadline itself
type absoluteAlarm struct {
	timer *time.Timer
}

// NewAbsoluteAlarm creates an alarm that sleeps until the exact deadline
func NewAbsoluteAlarm() Alarm {
	return &absoluteAlarm{timer: newStoppedTimer()}
}

func (a *absoluteAlarm) C() <-chan time.Time {
	return a.timer.C
}

func (a *absoluteAlarm) Arm(now, deadline time.Time) {
	resetTimer(a.timer, deadline.Sub(now))
}

func (a *absoluteAlarm) Stop() {
	a.timer.Stop()
}

// pollAlarm clamps every wait into [min, max]: never shorter than min
// (bounding busy wakeups), never longer than max (bounding staleness
// after clock jumps), and otherwise exactly until the deadline.
type pollAlarm struct {
	timer    *time.Timer
	min, max time.Duration
}

// NewPollAlarm creates a bounded-wait alarm
func NewPollAlarm(min, max time.Duration) Alarm {
	return &pollAlarm{timer: newStoppedTimer(), min: min, max: max}
}

func (a *pollAlarm) C() <-chan time.Time {
	return a.timer.C
}

func (a *pollAlarm) Arm(now, deadline time.Time) {
	wait := deadline.Sub(now)
	if wait < a.min {
		wait = a.min
	}
	if wait > a.max {
		wait = a.max
	}
	resetTimer(a.timer, wait)
}

func (a *pollAlarm) Stop() {
	a.timer.Stop()
}
