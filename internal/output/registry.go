// Package output tracks display outputs, their negotiated gamma
// controls, and the shared-memory ramp buffers applied through the
// transport. All methods run on the reactor goroutine; there is no
// locking because there is no concurrent caller.
package output

import (
	"errors"
	"log/slog"

	"github.com/saaga0h/solartone/internal/color"
	"github.com/saaga0h/solartone/internal/transport"
)

// Output is one tracked display output. The control and buffer are
// absent until negotiation and the ramp size announcement complete,
// and again after a control failure.
type Output struct {
	id       transport.OutputID
	control  transport.Control
	rampSize uint32
	buf      *rampBuffer
	scratch  []uint16

	// newlyReady forces the next apply even without a temperature
	// change, so an output that appeared mid-phase gets its table.
	newlyReady bool

	// dropped marks an output whose control failed or whose buffer
	// could not be backed. It stays registered but is never
	// renegotiated; unplugging and replugging starts fresh.
	dropped bool
}

// Registry is the arena of output records, addressed by stable id
type Registry struct {
	transport transport.Transport
	logger    *slog.Logger
	outputs   map[transport.OutputID]*Output
}

// NewRegistry creates an empty output registry
func NewRegistry(t transport.Transport, logger *slog.Logger) *Registry {
	return &Registry{
		transport: t,
		logger:    logger,
		outputs:   make(map[transport.OutputID]*Output),
	}
}

// Add inserts a hot-plugged output and negotiates its gamma control
func (r *Registry) Add(id transport.OutputID) {
	if _, ok := r.outputs[id]; ok {
		return
	}
	r.logger.Info("Adding output", "output", id)
	out := &Output{id: id}
	r.outputs[id] = out
	r.negotiate(out)
}

// NegotiatePending retries negotiation for outputs without a control.
// Called opportunistically when external events arrive; un-negotiated
// outputs are never actively polled.
func (r *Registry) NegotiatePending() {
	for _, out := range r.outputs {
		r.negotiate(out)
	}
}

func (r *Registry) negotiate(out *Output) {
	if out.control != nil || out.dropped {
		return
	}
	ctl, err := r.transport.AcquireControl(out.id)
	if errors.Is(err, transport.ErrNoGammaCapability) {
		r.logger.Warn("Skipping gamma setup of output, capability unavailable", "output", out.id)
		return
	}
	if err != nil {
		r.logger.Warn("Gamma control negotiation failed", "output", out.id, "error", err)
		return
	}
	out.control = ctl
}

// AnnounceRampSize installs a fresh ramp buffer for the announced size,
// replacing any previous buffer wholesale. Sizes below 2 are rejected:
// a one-entry ramp has no defined interpolation. Allocation failure
// drops the output's control and keeps the process running.
func (r *Registry) AnnounceRampSize(id transport.OutputID, size uint32) {
	out := r.outputs[id]
	if out == nil {
		r.logger.Warn("Ramp size announced for unknown output", "output", id)
		return
	}
	if size < 2 {
		r.logger.Error("Rejecting unusable ramp size", "output", id, "ramp_size", size)
		return
	}

	if out.buf != nil {
		out.buf.close()
		out.buf = nil
	}

	buf, err := newRampBuffer(size)
	if err != nil {
		r.logger.Error("Could not back gamma table, dropping output", "output", id, "error", err)
		r.release(out)
		out.dropped = true
		return
	}

	out.rampSize = size
	out.buf = buf
	out.scratch = make([]uint16, int(size)*3)
	out.newlyReady = true
}

// Fail handles a failed gamma control: the control and buffer are
// released, but the output stays registered and excluded from applies.
func (r *Registry) Fail(id transport.OutputID) {
	out := r.outputs[id]
	if out == nil {
		return
	}
	r.logger.Warn("Gamma control of output failed", "output", id)
	r.release(out)
	out.dropped = true
}

// Remove detaches and destroys a hot-unplugged output
func (r *Registry) Remove(id transport.OutputID) {
	out := r.outputs[id]
	if out == nil {
		return
	}
	r.logger.Info("Removing output", "output", id)
	r.release(out)
	delete(r.outputs, id)
}

// Close releases every control and buffer
func (r *Registry) Close() {
	for id, out := range r.outputs {
		r.release(out)
		delete(r.outputs, id)
	}
}

func (r *Registry) release(out *Output) {
	if out.control != nil {
		out.control.Destroy()
		out.control = nil
	}
	if out.buf != nil {
		out.buf.close()
		out.buf = nil
	}
	out.scratch = nil
	out.newlyReady = false
}

// TakeNewlyReady reports whether any output became ready since the last
// call, clearing the marks. A true result forces the next apply.
func (r *Registry) TakeNewlyReady() bool {
	ready := false
	for _, out := range r.outputs {
		if out.newlyReady {
			ready = true
			out.newlyReady = false
		}
	}
	return ready
}

// Len returns the number of registered outputs
func (r *Registry) Len() int {
	return len(r.outputs)
}

// Ready returns the number of outputs with a negotiated control and a
// backed ramp buffer.
func (r *Registry) Ready() int {
	n := 0
	for _, out := range r.outputs {
		if out.control != nil && out.buf != nil {
			n++
		}
	}
	return n
}

// Apply synthesizes and applies the ramp table for the given color
// temperature on every ready output. Outputs without a control or
// buffer are skipped; the newly-ready force-apply catches them once
// they finish negotiating.
func (r *Registry) Apply(kelvin int, gamma float64) {
	rw, gw, bw := color.Whitepoint(kelvin)
	for _, out := range r.outputs {
		if out.control == nil || out.buf == nil {
			continue
		}
		if err := color.FillRamp(out.scratch, int(out.rampSize), rw, gw, bw, gamma); err != nil {
			r.logger.Error("Ramp synthesis failed", "output", out.id, "error", err)
			continue
		}
		if err := out.buf.store(out.scratch); err != nil {
			r.logger.Error("Ramp buffer write failed", "output", out.id, "error", err)
			continue
		}
		if err := out.buf.rewind(); err != nil {
			r.logger.Error("Ramp buffer rewind failed", "output", out.id, "error", err)
			continue
		}
		if err := out.control.Apply(out.buf.fd); err != nil {
			r.logger.Warn("Ramp apply failed", "output", out.id, "error", err)
		}
	}
}
