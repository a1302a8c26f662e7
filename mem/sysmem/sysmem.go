package sysmem

import (
	"errors"
	"unsafe"
)

var (
	// ErrMap indicates that the operating system refused to map or unmap memory.
	ErrMap = errors.New("sysmem: memory mapping failed")

	// ErrExhausted indicates that a Limited backend's byte budget is used up.
	ErrExhausted = errors.New("sysmem: memory budget exhausted")

	// ErrUnknownBuffer indicates that Free received a buffer the backend never
	// handed out, or one it already took back.
	ErrUnknownBuffer = errors.New("sysmem: unknown buffer")

	// ErrBadSize indicates a request for a non-positive number of bytes.
	ErrBadSize = errors.New("sysmem: size must be positive")
)

// Allocator is a source of raw memory.
type Allocator interface {
	// Alloc returns a buffer with len == cap == size. Content is unspecified.
	Alloc(size int) ([]byte, error)

	// Free takes back a buffer previously returned by Alloc.
	Free(buf []byte) error
}

// base returns the address identifying buf, or nil for an empty slice.
func base(buf []byte) *byte {
	if cap(buf) == 0 {
		return nil
	}
	return unsafe.SliceData(buf)
}
