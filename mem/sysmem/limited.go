package sysmem

import (
	"fmt"
	"sync"
)

// Limited enforces a ceiling on the bytes outstanding from an inner backend.
type Limited struct {
	mu    sync.Mutex
	inner Allocator
	limit int64
	live  int64
}

// NewLimited wraps inner with a budget of limit bytes. A nil inner backend
// means the Go heap.
func NewLimited(inner Allocator, limit int64) *Limited {
	if inner == nil {
		inner = NewHeap()
	}
	return &Limited{inner: inner, limit: limit}
}

// Alloc fails with ErrExhausted when size would push usage past the limit.
func (l *Limited) Alloc(size int) ([]byte, error) {
	l.mu.Lock()
	if l.live+int64(size) > l.limit {
		used := l.live
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrExhausted, size, used, l.limit)
	}
	l.live += int64(size)
	l.mu.Unlock()

	buf, err := l.inner.Alloc(size)
	if err != nil {
		l.mu.Lock()
		l.live -= int64(size)
		l.mu.Unlock()
		return nil, err
	}
	return buf, nil
}

// Free returns buf's capacity to the budget.
func (l *Limited) Free(buf []byte) error {
	if cap(buf) == 0 {
		return nil
	}
	if err := l.inner.Free(buf); err != nil {
		return err
	}
	l.mu.Lock()
	l.live -= int64(cap(buf))
	l.mu.Unlock()
	return nil
}

// InUse returns the bytes currently charged against the budget.
func (l *Limited) InUse() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// Compile-time interface check
var _ Allocator = (*Limited)(nil)
