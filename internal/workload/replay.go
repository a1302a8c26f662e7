package workload

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/joshuapare/sizepool/mem/hook"
)

var (
	// ErrUnknownID indicates a resize or free of an id that is not live.
	ErrUnknownID = errors.New("workload: unknown id")

	// ErrDuplicateID indicates an allocation reusing a live id.
	ErrDuplicateID = errors.New("workload: id already live")

	// ErrBadOp indicates an operation the hook cannot express, such as a
	// zero-size allocation.
	ErrBadOp = errors.New("workload: bad operation")

	// ErrCorrupt indicates a buffer whose contents changed behind the
	// replayer's back.
	ErrCorrupt = errors.New("workload: buffer contents corrupted")
)

// ReplayOptions controls Replay.
type ReplayOptions struct {
	// Verify stamps every buffer with a pattern derived from its id and checks
	// it before each resize and free, and checks that a resize preserved the
	// common prefix. Costs a pass over every byte.
	Verify bool
}

// Result summarizes a replay.
type Result struct {
	Ops           int           `json:"ops"`
	Allocs        int           `json:"allocs"`
	Reallocs      int           `json:"reallocs"`
	Frees         int           `json:"frees"`
	Leftover      int           `json:"leftover"` // live at the end of the trace, freed by Replay
	PeakLive      int           `json:"peak_live"`
	PeakLiveBytes int64         `json:"peak_live_bytes"`
	HookCalls     uint64        `json:"hook_calls"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

type liveBuf struct {
	buf  []byte
	size int
}

type replayer struct {
	h      *hook.Hook
	opts   ReplayOptions
	live   map[int]liveBuf
	bytes  int64
	result Result
}

// Replay drives a through a hook.Hook the way an interpreter would: every
// operation becomes one callback, and frees pass the size the replayer
// remembered for the id. Allocations the trace leaves live are freed at the
// end (or after a failure) so the allocator can be torn down cleanly.
func Replay(a hook.Allocator, ops []Op, opts ReplayOptions) (Result, error) {
	r := &replayer{
		h:    hook.New(a),
		opts: opts,
		live: make(map[int]liveBuf),
	}

	start := time.Now()
	for i, op := range ops {
		if err := r.step(op); err != nil {
			r.drain()
			return r.finish(start), fmt.Errorf("op %d (%s %d): %w", i, op.Kind, op.ID, err)
		}
		r.result.Ops++
	}

	r.result.Leftover = len(r.live)
	if err := r.drain(); err != nil {
		return r.finish(start), fmt.Errorf("free leftovers: %w", err)
	}
	return r.finish(start), nil
}

func (r *replayer) finish(start time.Time) Result {
	r.result.Elapsed = time.Since(start)
	r.result.HookCalls = r.h.Calls()
	return r.result
}

func (r *replayer) step(op Op) error {
	switch op.Kind {
	case KindAlloc:
		return r.alloc(op.ID, op.Size)
	case KindRealloc:
		return r.realloc(op.ID, op.Size)
	case KindFree:
		return r.free(op.ID)
	default:
		return fmt.Errorf("%w: kind %s", ErrBadOp, op.Kind)
	}
}

func (r *replayer) alloc(id, size int) error {
	if size < 1 {
		return fmt.Errorf("%w: size %d", ErrBadOp, size)
	}
	if _, ok := r.live[id]; ok {
		return ErrDuplicateID
	}

	buf := r.h.Alloc(nil, 0, size)
	if buf == nil {
		return r.h.Err()
	}
	if r.opts.Verify {
		stamp(buf, id)
	}

	r.live[id] = liveBuf{buf: buf, size: size}
	r.bytes += int64(size)
	r.result.Allocs++
	r.observe()
	return nil
}

func (r *replayer) realloc(id, size int) error {
	if size < 1 {
		return fmt.Errorf("%w: size %d", ErrBadOp, size)
	}
	lb, ok := r.live[id]
	if !ok {
		return ErrUnknownID
	}
	if r.opts.Verify {
		if err := check(lb.buf, id, lb.size); err != nil {
			return err
		}
	}

	buf := r.h.Alloc(lb.buf, lb.size, size)
	if buf == nil {
		return r.h.Err()
	}
	r.live[id] = liveBuf{buf: buf, size: size}
	r.bytes += int64(size - lb.size)
	if err := r.h.Err(); err != nil {
		// Moved, but the old buffer was not released
		return err
	}
	if r.opts.Verify {
		if err := check(buf, id, min(size, lb.size)); err != nil {
			return fmt.Errorf("after resize: %w", err)
		}
		stamp(buf, id)
	}

	r.result.Reallocs++
	r.observe()
	return nil
}

func (r *replayer) free(id int) error {
	lb, ok := r.live[id]
	if !ok {
		return ErrUnknownID
	}
	if r.opts.Verify {
		if err := check(lb.buf, id, lb.size); err != nil {
			return err
		}
	}

	r.h.Alloc(lb.buf, lb.size, 0)
	if err := r.h.Err(); err != nil {
		return err
	}

	delete(r.live, id)
	r.bytes -= int64(lb.size)
	r.result.Frees++
	return nil
}

func (r *replayer) observe() {
	r.result.PeakLive = max(r.result.PeakLive, len(r.live))
	r.result.PeakLiveBytes = max(r.result.PeakLiveBytes, r.bytes)
}

// drain frees every live id in ascending order.
func (r *replayer) drain() error {
	ids := make([]int, 0, len(r.live))
	for id := range r.live {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		lb := r.live[id]
		r.h.Alloc(lb.buf, lb.size, 0)
		delete(r.live, id)
		r.bytes -= int64(lb.size)
	}
	return r.h.Err()
}

func patternByte(id, i int) byte {
	return byte(id*31 + i)
}

func stamp(buf []byte, id int) {
	for i := range buf {
		buf[i] = patternByte(id, i)
	}
}

func check(buf []byte, id, n int) error {
	for i := range n {
		if buf[i] != patternByte(id, i) {
			return fmt.Errorf("%w: byte %d of %d", ErrCorrupt, i, n)
		}
	}
	return nil
}
