//go:build linux || darwin || freebsd || netbsd || openbsd

package sysmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap hands out anonymous private mappings. Every buffer is its own mapping,
// so it suits large blocks better than tiny pass-through allocations.
type Mmap struct{}

// NewMmap returns the mapping backend.
func NewMmap() *Mmap { return &Mmap{} }

// Alloc maps size bytes of zero-filled, read-write memory.
func (m *Mmap) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrMap, size, err)
	}
	return data, nil
}

// Free unmaps buf. The slice must carry the capacity it was mapped with.
func (m *Mmap) Free(buf []byte) error {
	if cap(buf) == 0 {
		return nil
	}
	if err := unix.Munmap(buf[:cap(buf)]); err != nil {
		return fmt.Errorf("%w: munmap %d bytes: %w", ErrMap, cap(buf), err)
	}
	return nil
}

// Compile-time interface check
var _ Allocator = (*Mmap)(nil)
