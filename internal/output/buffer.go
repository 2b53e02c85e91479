package output

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// rampBuffer is the shared-memory backing for one output's gamma table:
// an anonymous, unlinked, memory-mapped file holding rampSize samples
// per channel, [R | G | B], 16-bit each. Size changes replace the whole
// buffer, it is never resized in place.
type rampBuffer struct {
	fd   int
	data []byte
}

func newRampBuffer(rampSize uint32) (*rampBuffer, error) {
	size := int(rampSize) * 3 * 2

	fd, err := unix.MemfdCreate("solartone-ramp", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ftruncate: %w", err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return &rampBuffer{fd: fd, data: data}, nil
}

// store writes a full table into the mapped region
func (b *rampBuffer) store(table []uint16) error {
	if len(table)*2 != len(b.data) {
		return fmt.Errorf("table holds %d samples, buffer expects %d", len(table), len(b.data)/2)
	}
	for i, s := range table {
		binary.NativeEndian.PutUint16(b.data[2*i:], s)
	}
	return nil
}

// rewind resets the descriptor's offset so the reader starts at the
// table's first sample.
func (b *rampBuffer) rewind() error {
	_, err := unix.Seek(b.fd, 0, 0)
	return err
}

func (b *rampBuffer) close() {
	if b.data != nil {
		unix.Munmap(b.data)
		b.data = nil
	}
	if b.fd >= 0 {
		unix.Close(b.fd)
		b.fd = -1
	}
}
