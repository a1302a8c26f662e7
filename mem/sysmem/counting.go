package sysmem

import (
	"fmt"
	"sync"
)

// CountingStats is a snapshot of the traffic seen by a Counting backend.
type CountingStats struct {
	Allocs      int   `json:"allocs"`      // Successful Alloc calls
	Frees       int   `json:"frees"`       // Successful Free calls
	Failures    int   `json:"failures"`    // Alloc calls the inner backend refused
	AllocBytes  int64 `json:"alloc_bytes"` // Bytes handed out over the lifetime
	FreeBytes   int64 `json:"free_bytes"`  // Bytes taken back over the lifetime
	Outstanding int   `json:"outstanding"` // Buffers handed out and not yet freed
	PeakBytes   int64 `json:"peak_bytes"`  // High-water mark of live bytes
}

// LiveBytes returns the bytes currently handed out.
func (s CountingStats) LiveBytes() int64 {
	return s.AllocBytes - s.FreeBytes
}

// Counting records every call made to an inner backend and remembers which
// buffers are still outstanding. Freeing a buffer it never handed out, or
// freeing one twice, is reported as ErrUnknownBuffer without reaching the
// inner backend.
type Counting struct {
	mu    sync.Mutex
	inner Allocator
	live  map[*byte]int
	stats CountingStats
}

// NewCounting wraps inner. A nil inner backend means the Go heap.
func NewCounting(inner Allocator) *Counting {
	if inner == nil {
		inner = NewHeap()
	}
	return &Counting{
		inner: inner,
		live:  make(map[*byte]int),
	}
}

// Alloc forwards to the inner backend and records the result.
func (c *Counting) Alloc(size int) ([]byte, error) {
	buf, err := c.inner.Alloc(size)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.stats.Failures++
		return nil, err
	}
	c.live[base(buf)] = cap(buf)
	c.stats.Allocs++
	c.stats.AllocBytes += int64(cap(buf))
	if live := c.stats.LiveBytes(); live > c.stats.PeakBytes {
		c.stats.PeakBytes = live
	}
	return buf, nil
}

// Free checks that buf is outstanding, then forwards it to the inner backend.
func (c *Counting) Free(buf []byte) error {
	if cap(buf) == 0 {
		return nil
	}

	c.mu.Lock()
	size, ok := c.live[base(buf)]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d-byte buffer", ErrUnknownBuffer, cap(buf))
	}
	delete(c.live, base(buf))
	c.stats.Frees++
	c.stats.FreeBytes += int64(size)
	c.mu.Unlock()

	return c.inner.Free(buf)
}

// Stats returns a snapshot of the counters.
func (c *Counting) Stats() CountingStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Outstanding = len(c.live)
	return s
}

// Outstanding returns the number of buffers handed out and not yet freed.
func (c *Counting) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Compile-time interface check
var _ Allocator = (*Counting)(nil)
