// Package hook adapts a caller-sized allocator to the single-callback shape
// embedded interpreters expect: one function that allocates, resizes and
// frees depending on its arguments.
package hook

import "github.com/joshuapare/sizepool/mem/pool"

// Allocator is the three-operation contract the hook drives. *pool.Pool
// satisfies it.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(buf []byte, size int) error
	Reallocate(buf []byte, newSize, oldSize int) ([]byte, error)
}

// Hook routes interpreter allocation callbacks to an Allocator.
//
// Interpreter callbacks have no error channel: a failed allocation is a nil
// result. Hook keeps the last error so the host can inspect it after the
// interpreter reports an out-of-memory condition.
type Hook struct {
	a   Allocator
	err error

	calls uint64
}

// New returns a hook over a.
func New(a Allocator) *Hook {
	return &Hook{a: a}
}

// Alloc is the callback:
//
//   - nsize == 0: free ptr (allocated with osize) and return nil
//   - ptr is null: allocate nsize bytes; osize carries an object-kind tag and is ignored
//   - otherwise: move ptr (allocated with osize) into an nsize buffer
//
// A nil result with nsize > 0 means the allocation failed; see Err. A
// non-nil result may still come with a recorded error when only the release
// of the old buffer failed.
func (h *Hook) Alloc(ptr []byte, osize, nsize int) []byte {
	h.calls++

	if nsize == 0 {
		if err := h.a.Free(ptr, osize); err != nil {
			h.err = err
		}
		return nil
	}

	var (
		out []byte
		err error
	)
	if cap(ptr) == 0 {
		out, err = h.a.Allocate(nsize)
	} else {
		out, err = h.a.Reallocate(ptr, nsize, osize)
	}
	if err != nil {
		h.err = err
	}
	// A resize can fail to release the old buffer after the data moved; the
	// new buffer is still the live one.
	return out
}

// Err returns the most recent failure, or nil.
func (h *Hook) Err() error {
	return h.err
}

// Calls returns the number of callbacks served.
func (h *Hook) Calls() uint64 {
	return h.calls
}

// Compile-time interface check
var _ Allocator = (*pool.Pool)(nil)
