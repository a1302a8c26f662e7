package pool

import "unsafe"

// liveChunk records what the pool knows about a pointer it handed out.
type liveChunk struct {
	size   int  // normalized size
	pooled bool // false for pass-through allocations
}

// tracker backs Config.Debug. It costs two map operations per call, which is
// why it is off by default.
type tracker struct {
	live map[uintptr]liveChunk

	// released holds pass-through pointers already given back to the system
	// allocator, so a second free is reported as a double free rather than as
	// a foreign pointer. Entries drop out when the address is handed out again.
	released map[uintptr]struct{}
}

// anySize makes verify accept a live pointer at whatever size it was
// allocated with.
const anySize = -1

func newTracker() *tracker {
	return &tracker{
		live:     make(map[uintptr]liveChunk),
		released: make(map[uintptr]struct{}),
	}
}

func addrOf(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}

func (t *tracker) checkout(buf []byte, size int, pooled bool) {
	a := addrOf(buf)
	t.live[a] = liveChunk{size: size, pooled: pooled}
	delete(t.released, a)
}

// verify checks that buf is live at the normalized size the caller claims,
// or at any size when size is anySize.
// chunkAt reports whether an address is the start of a chunk inside one of
// the pool's blocks.
func (t *tracker) verify(op string, buf []byte, size int, chunkAt func(uintptr) bool) error {
	a := addrOf(buf)
	lc, ok := t.live[a]
	if ok {
		if size != anySize && lc.size != size {
			return &MisuseError{Op: op, Size: size, Want: lc.size, Err: ErrSizeMismatch}
		}
		return nil
	}
	if _, gone := t.released[a]; gone {
		return &MisuseError{Op: op, Size: size, Err: ErrDoubleFree}
	}
	if chunkAt(a) {
		return &MisuseError{Op: op, Size: size, Err: ErrDoubleFree}
	}
	return &MisuseError{Op: op, Size: size, Err: ErrForeignPointer}
}

func (t *tracker) checkin(buf []byte, pooled bool) {
	a := addrOf(buf)
	delete(t.live, a)
	if !pooled {
		t.released[a] = struct{}{}
	}
}

// reset forgets pooled chunks, whose blocks are gone. Pass-through pointers
// outlive a reset and stay tracked.
func (t *tracker) reset() {
	for a, lc := range t.live {
		if lc.pooled {
			delete(t.live, a)
		}
	}
}
