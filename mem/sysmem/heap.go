package sysmem

// Heap allocates from the Go heap. The runtime aborts the process when it
// cannot satisfy a request, so Alloc never reports exhaustion.
type Heap struct{}

// NewHeap returns the Go heap backend.
func NewHeap() *Heap { return &Heap{} }

// Alloc returns a zeroed slice of size bytes.
func (h *Heap) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}
	return make([]byte, size), nil
}

// Free is a no-op; the garbage collector reclaims the slice once unreferenced.
func (h *Heap) Free(buf []byte) error {
	return nil
}

// Compile-time interface check
var _ Allocator = (*Heap)(nil)
