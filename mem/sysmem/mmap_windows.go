//go:build windows

package sysmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Mmap hands out committed VirtualAlloc regions.
type Mmap struct{}

// NewMmap returns the mapping backend.
func NewMmap() *Mmap { return &Mmap{} }

// Alloc reserves and commits size bytes of zero-filled, read-write memory.
func (m *Mmap) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("%w: VirtualAlloc %d bytes: %w", ErrMap, size, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// Free releases the whole region buf starts.
func (m *Mmap) Free(buf []byte) error {
	if cap(buf) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("%w: VirtualFree: %w", ErrMap, err)
	}
	return nil
}

// Compile-time interface check
var _ Allocator = (*Mmap)(nil)
