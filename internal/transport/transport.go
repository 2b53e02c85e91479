// Package transport defines the narrow interface the daemon requires
// from a display transport: output discovery with hot-plug
// notifications, and a per-output gamma control that announces its ramp
// size, may fail, and accepts a ramp table as a rewound file descriptor.
package transport

import (
	"context"
	"errors"
)

// ErrNoGammaCapability is returned when the transport cannot hand out
// gamma controls, either globally at connect time or for one output.
var ErrNoGammaCapability = errors.New("transport does not expose gamma control")

// OutputID is the stable identity of one display output
type OutputID uint32

// Event is a transport-originated notification delivered to the reactor
type Event interface {
	isEvent()
}

// OutputAdded announces a hot-plugged output
type OutputAdded struct {
	ID OutputID
}

// OutputRemoved announces an unplugged output
type OutputRemoved struct {
	ID OutputID
}

// RampSizeAnnounced reports the ramp size negotiated for an output's
// gamma control. It may arrive more than once if the size changes.
type RampSizeAnnounced struct {
	ID   OutputID
	Size uint32
}

// ControlFailed reports that an output's gamma control stopped working
type ControlFailed struct {
	ID OutputID
}

func (OutputAdded) isEvent()       {}
func (OutputRemoved) isEvent()     {}
func (RampSizeAnnounced) isEvent() {}
func (ControlFailed) isEvent()     {}

// Control is the negotiated gamma channel for one output
type Control interface {
	// Apply hands the ramp table's descriptor, rewound to its start,
	// to the transport for application.
	Apply(fd int) error

	// Destroy releases the control. The output itself stays valid.
	Destroy()
}

// Transport is the display channel the daemon drives. Events carries
// hot-plug and per-control notifications; it closes on a fatal
// transport error, after which Err reports the cause.
type Transport interface {
	// Connect performs discovery. It fails with ErrNoGammaCapability
	// when the remote side lacks gamma control entirely.
	Connect(ctx context.Context) error

	// Events returns the notification stream. Closed on fatal error.
	Events() <-chan Event

	// AcquireControl negotiates a gamma control for one output
	AcquireControl(id OutputID) (Control, error)

	// Err returns the fatal error that closed Events, if any
	Err() error

	// Close releases the transport connection
	Close() error
}
