// Package sim provides an in-process display transport that behaves
// like a compositor: it announces outputs and ramp sizes, accepts ramp
// tables through shared-memory descriptors, and supports hot-plug. It
// backs the default build when no compositor binding is compiled in,
// and the daemon tests.
package sim

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/saaga0h/solartone/internal/transport"
)

// OutputSpec describes one simulated output
type OutputSpec struct {
	ID       transport.OutputID
	RampSize uint32
}

// Transport is a simulated compositor connection
type Transport struct {
	mu       sync.Mutex
	outputs  map[transport.OutputID]uint32
	events   chan transport.Event
	closed   bool
	err      error
	noGamma  bool
	applied  map[transport.OutputID][]uint16
	applies  int
	controls int
}

// New creates a simulated transport pre-populated with the given outputs
func New(outputs ...OutputSpec) *Transport {
	t := &Transport{
		outputs: make(map[transport.OutputID]uint32),
		events:  make(chan transport.Event, 64),
		applied: make(map[transport.OutputID][]uint16),
	}
	for _, o := range outputs {
		t.outputs[o.ID] = o.RampSize
	}
	return t
}

// DisableGamma makes the transport refuse gamma controls, simulating a
// compositor without the capability.
func (t *Transport) DisableGamma() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.noGamma = true
}

// Connect announces the initial outputs
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.noGamma {
		return transport.ErrNoGammaCapability
	}
	for id := range t.outputs {
		t.events <- transport.OutputAdded{ID: id}
	}
	return nil
}

// Events returns the notification stream
func (t *Transport) Events() <-chan transport.Event {
	return t.events
}

// AcquireControl negotiates a gamma control for an output. The ramp
// size announcement is queued as an event, as a compositor would.
func (t *Transport) AcquireControl(id transport.OutputID) (transport.Control, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.noGamma {
		return nil, transport.ErrNoGammaCapability
	}
	size, ok := t.outputs[id]
	if !ok {
		return nil, fmt.Errorf("unknown output %d", id)
	}
	t.controls++
	t.events <- transport.RampSizeAnnounced{ID: id, Size: size}
	return &control{transport: t, id: id}, nil
}

// Err returns the fatal error that closed the event stream
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close shuts the event stream down cleanly
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	return nil
}

// Fail closes the event stream with a fatal transport error
func (t *Transport) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.err = err
		close(t.events)
	}
}

// AddOutput hot-plugs a new output
func (t *Transport) AddOutput(spec OutputSpec) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outputs[spec.ID] = spec.RampSize
	t.events <- transport.OutputAdded{ID: spec.ID}
}

// RemoveOutput unplugs an output
func (t *Transport) RemoveOutput(id transport.OutputID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.outputs, id)
	t.events <- transport.OutputRemoved{ID: id}
}

// FailControl signals a failed gamma control for one output
func (t *Transport) FailControl(id transport.OutputID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events <- transport.ControlFailed{ID: id}
}

// AnnounceRampSize re-announces a changed ramp size for one output
func (t *Transport) AnnounceRampSize(id transport.OutputID, size uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outputs[id] = size
	t.events <- transport.RampSizeAnnounced{ID: id, Size: size}
}

// AppliedTable returns the last ramp table applied to an output
func (t *Transport) AppliedTable(id transport.OutputID) []uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.applied[id]
}

// ApplyCount returns the total number of ramp applications observed
func (t *Transport) ApplyCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.applies
}

// OpenControls returns the number of gamma controls not yet destroyed
func (t *Transport) OpenControls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.controls
}

func (t *Transport) recordApply(id transport.OutputID, table []uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applied[id] = table
	t.applies++
}

func (t *Transport) recordDestroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.controls--
}

// control is a simulated per-output gamma channel. Apply reads the ramp
// table back out of the shared descriptor, which exercises the same
// buffer handoff a compositor would perform.
type control struct {
	transport *Transport
	id        transport.OutputID
}

func (c *control) rampSize() uint32 {
	c.transport.mu.Lock()
	defer c.transport.mu.Unlock()
	return c.transport.outputs[c.id]
}

func (c *control) Apply(fd int) error {
	size := int(c.rampSize()) * 3 * 2
	buf := make([]byte, size)
	n, err := unix.Pread(fd, buf, 0)
	if err != nil {
		return fmt.Errorf("reading ramp table for output %d: %w", c.id, err)
	}
	if n != size {
		return fmt.Errorf("ramp table for output %d is %d bytes, want %d", c.id, n, size)
	}

	table := make([]uint16, size/2)
	for i := range table {
		table[i] = binary.NativeEndian.Uint16(buf[2*i:])
	}
	c.transport.recordApply(c.id, table)
	return nil
}

func (c *control) Destroy() {
	c.transport.recordDestroy()
}
