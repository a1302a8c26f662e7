package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates that the system allocator could not supply memory.
	// The backend's own error is wrapped alongside it.
	ErrOutOfMemory = errors.New("pool: out of memory")

	// ErrClosed indicates use of a pool after Close.
	ErrClosed = errors.New("pool: use after close")

	// ErrInvalidSize indicates a negative allocation size.
	ErrInvalidSize = errors.New("pool: invalid size")

	// ErrInvalidConfig indicates a Config that fails validation.
	ErrInvalidConfig = errors.New("pool: invalid config")

	// ErrDoubleFree indicates a free of a chunk that is already on its free list.
	// Only reported when Config.Debug is set.
	ErrDoubleFree = errors.New("pool: double free")

	// ErrSizeMismatch indicates a free or reallocate whose size does not match
	// the size the pointer was allocated with. Only reported when Config.Debug is set.
	ErrSizeMismatch = errors.New("pool: size mismatch")

	// ErrForeignPointer indicates a pointer this pool never handed out.
	// Only reported when Config.Debug is set.
	ErrForeignPointer = errors.New("pool: foreign pointer")

	// ErrNotRegistered indicates a Release of a pool the registry does not own,
	// or of one that is already idle.
	ErrNotRegistered = errors.New("pool: not registered")
)

// MisuseError describes a caller contract violation caught in debug mode.
type MisuseError struct {
	Op   string // "free" or "reallocate"
	Size int    // normalized size supplied by the caller
	Want int    // normalized size recorded at allocation; 0 when unknown
	Err  error  // one of ErrDoubleFree, ErrSizeMismatch, ErrForeignPointer
}

func (e *MisuseError) Error() string {
	if e.Want != 0 {
		return fmt.Sprintf("%v: %s with size %d, allocated with size %d", e.Err, e.Op, e.Size, e.Want)
	}
	return fmt.Sprintf("%v: %s with size %d", e.Err, e.Op, e.Size)
}

func (e *MisuseError) Unwrap() error { return e.Err }
