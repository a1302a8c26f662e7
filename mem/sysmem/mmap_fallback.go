//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package sysmem

// Mmap falls back to the Go heap where anonymous mappings are not wired up.
type Mmap struct {
	Heap
}

// NewMmap returns the heap-backed stand-in.
func NewMmap() *Mmap { return &Mmap{} }

// Compile-time interface check
var _ Allocator = (*Mmap)(nil)
