package daemon

import (
	"testing"
	"time"
)

func waitForFire(t *testing.T, a Alarm, within time.Duration) time.Duration {
	t.Helper()
	start := time.Now()
	select {
	case <-a.C():
		return time.Since(start)
	case <-time.After(within):
		t.Fatalf("alarm did not fire within %v", within)
		return 0
	}
}

func TestAbsoluteAlarmFiresAtDeadline(t *testing.T) {
	a := NewAbsoluteAlarm()
	defer a.Stop()

	now := time.Now()
	a.Arm(now, now.Add(20*time.Millisecond))

	elapsed := waitForFire(t, a, time.Second)
	if elapsed < 20*time.Millisecond {
		t.Errorf("fired after %v, before the deadline", elapsed)
	}
}

func TestAbsoluteAlarmPastDeadlineFiresImmediately(t *testing.T) {
	a := NewAbsoluteAlarm()
	defer a.Stop()

	now := time.Now()
	a.Arm(now, now.Add(-time.Minute))
	waitForFire(t, a, time.Second)
}

func TestAbsoluteAlarmRearmReplacesDeadline(t *testing.T) {
	a := NewAbsoluteAlarm()
	defer a.Stop()

	now := time.Now()
	a.Arm(now, now.Add(time.Hour))
	a.Arm(now, now.Add(20*time.Millisecond))
	waitForFire(t, a, time.Second)
}

func TestPollAlarmClampsLongWaits(t *testing.T) {
	a := NewPollAlarm(5*time.Millisecond, 40*time.Millisecond)
	defer a.Stop()

	// A deadline hours away still wakes within the max bound
	now := time.Now()
	a.Arm(now, now.Add(time.Hour))

	elapsed := waitForFire(t, a, time.Second)
	if elapsed > 500*time.Millisecond {
		t.Errorf("poll alarm slept %v, want clamped near 40ms", elapsed)
	}
}

func TestPollAlarmClampsShortWaits(t *testing.T) {
	a := NewPollAlarm(20*time.Millisecond, time.Second)
	defer a.Stop()

	// A deadline already in the past still waits at least the minimum
	now := time.Now()
	a.Arm(now, now.Add(-time.Minute))

	elapsed := waitForFire(t, a, time.Second)
	if elapsed < 20*time.Millisecond {
		t.Errorf("poll alarm fired after %v, before the minimum bound", elapsed)
	}
}
