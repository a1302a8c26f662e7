package pool

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/sizepool/mem/sysmem"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newCountingPool builds a pool over a Counting heap backend and closes it at
// the end of the test unless the test already did.
func newCountingPool(t testing.TB, cfg *Config) (*Pool, *sysmem.Counting) {
	t.Helper()

	sys := sysmem.NewCounting(sysmem.NewHeap())
	p, err := New(sys, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if !p.closed {
			_ = p.Close()
		}
	})
	return p, sys
}

// base returns the address of buf's first byte.
func base(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}

// sameChunk reports whether a and b start at the same address.
func sameChunk(a, b []byte) bool {
	return base(a) == base(b)
}

// fill writes a pattern derived from seed into buf.
func fill(buf []byte, seed byte) {
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}

// requirePattern checks that buf still holds the pattern written by fill.
func requirePattern(t testing.TB, buf []byte, seed byte) {
	t.Helper()
	for i := range buf {
		if buf[i] != seed+byte(i) {
			require.Failf(t, "pattern mismatch",
				"byte %d of %d: got 0x%02x want 0x%02x", i, len(buf), buf[i], seed+byte(i))
		}
	}
}

var errRefused = errors.New("free refused")

// refusingFree hands out heap memory but fails every Free.
type refusingFree struct {
	sysmem.Heap
}

func (r *refusingFree) Free([]byte) error {
	return errRefused
}
