package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/joshuapare/sizepool/mem/sysmem"
)

// block is one system allocation carved into same-size chunks.
type block struct {
	mem  []byte // the buffer exactly as the system allocator returned it
	size int    // chunk size of the owning class
}

// Pool is a size-classed pooling allocator.
//
// Every distinct normalized request size gets its own free list and growth
// counter. An empty free list is refilled by carving a fresh block of
// size*counter bytes from the system allocator; the counter then doubles.
// Blocks are only returned to the system allocator by Reset or Close.
//
// The caller is the source of truth for an allocation's size: Free and
// Reallocate must be given the size the pointer was allocated with.
//
// A Pool is not safe for concurrent use. One interpreter, one pool.
type Pool struct {
	cfg Config
	sys SystemAllocator
	log *slog.Logger

	// Size classes keyed by normalized size
	classes map[int]*sizeClass

	// Every block ever carved, released only at Reset/Close
	blocks []block

	stats counters
	debug *tracker // nil unless cfg.Debug

	index  int // slot in the owning Registry, -1 when standalone
	closed bool
}

// counters holds the running totals behind Stats.
type counters struct {
	internalAllocs uint64
	recycledAllocs uint64
	externalAllocs uint64
	internalFrees  uint64
	externalFrees  uint64
	reallocs       uint64
	blockBytes     int64
}

// New creates a pool drawing blocks from sys.
//
// Parameters:
//   - sys: The system allocator (use nil for the Go heap)
//   - config: Pool configuration (use nil for DefaultConfig)
func New(sys SystemAllocator, config *Config) (*Pool, error) {
	if config == nil {
		config = &DefaultConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := config.withDefaults()

	if sys == nil {
		sys = sysmem.NewHeap()
	}

	p := &Pool{
		cfg:     cfg,
		sys:     sys,
		log:     cfg.logger(),
		classes: make(map[int]*sizeClass, 64),
		blocks:  make([]block, 0, 64),
		index:   -1,
	}
	if cfg.Debug {
		p.debug = newTracker()
	}
	return p, nil
}

// Config returns the effective configuration, defaults applied.
func (p *Pool) Config() Config {
	return p.cfg
}

// Index returns the pool's slot in its Registry, or -1 for a standalone pool.
func (p *Pool) Index() int {
	return p.index
}

// CanPool reports whether an already-normalized size is served from a size
// class. Allocate and Free make the same decision for the same size, so a
// pointer always goes back through the path that produced it.
func (p *Pool) CanPool(size int) bool {
	return p.cfg.Mode == ModePooled && size <= p.cfg.MaxPooledSize
}

func (p *Pool) normalize(size int) int {
	return max(size, p.cfg.MinAllocSize)
}

// Allocate returns a buffer with len == size and cap == max(size, MinAllocSize).
// Content is not zeroed: a recycled chunk still holds whatever its last owner
// wrote.
func (p *Pool) Allocate(size int) ([]byte, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	n := p.normalize(size)

	var (
		buf    []byte
		err    error
		pooled = p.CanPool(n)
	)
	if pooled {
		buf, err = p.allocPooled(n)
	} else {
		buf, err = p.allocSystem(n)
	}
	if err != nil {
		return nil, err
	}

	if p.debug != nil {
		p.debug.checkout(buf, n, pooled)
	}
	return buf[:size], nil
}

func (p *Pool) allocSystem(n int) ([]byte, error) {
	buf, err := p.sys.Alloc(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrOutOfMemory, n, err)
	}
	p.stats.externalAllocs++
	return buf, nil
}

func (p *Pool) allocPooled(n int) ([]byte, error) {
	c, ok := p.classes[n]
	if !ok {
		c = newSizeClass(n, p.cfg.InitialChunks)
		p.classes[n] = c
	}

	if chunk := c.pop(); chunk != nil {
		p.stats.internalAllocs++
		p.stats.recycledAllocs++
		return chunk, nil
	}

	chunk, err := p.carve(c)
	if err != nil {
		return nil, err
	}
	p.stats.internalAllocs++
	return chunk, nil
}

// carve allocates a new block for c and returns its first chunk. The rest of
// the block becomes c's free list.
func (p *Pool) carve(c *sizeClass) ([]byte, error) {
	numChunks := c.next
	if numChunks > math.MaxInt/c.size {
		return nil, fmt.Errorf("%w: block of %d x %d bytes overflows", ErrOutOfMemory, numChunks, c.size)
	}
	numBytes := c.size * numChunks

	mem, err := p.sys.Alloc(numBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %d-byte block for size class %d: %w", ErrOutOfMemory, numBytes, c.size, err)
	}
	p.blocks = append(p.blocks, block{mem: mem, size: c.size})
	p.stats.blockBytes += int64(numBytes)

	chunk := c.carve(mem, numChunks)
	c.grow(p.cfg.MaxChunksPerBlock)

	p.log.Debug("carved block",
		"class", c.size,
		"chunks", numChunks,
		"bytes", numBytes,
		"next_chunks", c.next,
	)
	return chunk, nil
}

// Free gives buf back. size must be the size buf was allocated with. An empty
// (cap 0) buf is ignored. In ModePassThrough size is not consulted: the whole
// buffer goes back to the system allocator.
func (p *Pool) Free(buf []byte, size int) error {
	if cap(buf) == 0 {
		return nil
	}
	if p.closed {
		return ErrClosed
	}
	if p.cfg.Mode == ModePassThrough {
		return p.freePassThrough(buf)
	}
	if size < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	n := p.normalize(size)
	pooled := p.CanPool(n)

	if p.debug != nil {
		if err := p.debug.verify("free", buf, n, p.chunkAt); err != nil {
			return err
		}
		p.debug.checkin(buf, pooled)
	}

	if !pooled {
		return p.freeSystem(buf[:n])
	}

	c, ok := p.classes[n]
	if !ok {
		// Only reachable when size differs from the allocation size.
		c = newSizeClass(n, p.cfg.InitialChunks)
		p.classes[n] = c
	}
	c.push(buf[:n:n])
	p.stats.internalFrees++
	return nil
}

func (p *Pool) freePassThrough(buf []byte) error {
	if p.debug != nil {
		if err := p.debug.verify("free", buf, anySize, p.chunkAt); err != nil {
			return err
		}
		p.debug.checkin(buf, false)
	}
	return p.freeSystem(buf[:cap(buf)])
}

func (p *Pool) freeSystem(buf []byte) error {
	p.stats.externalFrees++
	if err := p.sys.Free(buf); err != nil {
		return fmt.Errorf("pool: release %d bytes: %w", len(buf), err)
	}
	return nil
}

// Reallocate moves buf (allocated with oldSize) into a fresh newSize buffer.
// It always allocates, copies min(newSize, oldSize) bytes, zeroes the old
// buffer's oldSize bytes and frees it, even when both sizes share a class.
// A null buf makes this a plain Allocate.
//
// If the old buffer cannot be released the new buffer is still returned,
// holding the copied data, together with the error.
func (p *Pool) Reallocate(buf []byte, newSize, oldSize int) ([]byte, error) {
	if cap(buf) != 0 && !p.closed {
		if oldSize < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidSize, oldSize)
		}
		if p.debug != nil {
			if err := p.debug.verify("reallocate", buf, p.normalize(oldSize), p.chunkAt); err != nil {
				return nil, err
			}
		}
	}

	out, err := p.Allocate(newSize)
	if err != nil {
		return nil, err
	}
	if cap(buf) == 0 {
		return out, nil
	}

	old := buf[:oldSize]
	copy(out, old)
	clear(old)

	if err := p.Free(old, oldSize); err != nil {
		return out, err
	}
	p.stats.reallocs++
	return out, nil
}

// chunkAt reports whether addr is the first byte of a chunk in one of the
// pool's blocks. Debug mode only; it scans every block.
func (p *Pool) chunkAt(addr uintptr) bool {
	for _, b := range p.blocks {
		start := addrOf(b.mem)
		if addr < start || addr >= start+uintptr(len(b.mem)) {
			continue
		}
		return (addr-start)%uintptr(b.size) == 0
	}
	return false
}

// Reset returns every block to the system allocator and forgets all size
// classes, leaving an empty pool ready for reuse. Outstanding pointers become
// invalid.
func (p *Pool) Reset() error {
	if p.closed {
		return ErrClosed
	}
	return p.release()
}

// Close tears the pool down: every block ever carved is returned to the
// system allocator exactly once, whether or not its chunks were freed.
// Pass-through allocations that were never freed are not tracked and are
// not reclaimed. The pool must not be used afterwards.
func (p *Pool) Close() error {
	if p.closed {
		return ErrClosed
	}
	p.LogStats("close")
	err := p.release()
	p.closed = true
	return err
}

func (p *Pool) release() error {
	var errs []error
	for i := range p.blocks {
		if err := p.sys.Free(p.blocks[i].mem); err != nil {
			errs = append(errs, fmt.Errorf("pool: release block %d (class %d): %w", i, p.blocks[i].size, err))
		}
		p.blocks[i] = block{}
	}
	p.blocks = p.blocks[:0]
	clear(p.classes)
	// Pass-through buffers are not owned by blocks and stay valid, so their
	// counters carry over.
	p.stats = counters{
		externalAllocs: p.stats.externalAllocs,
		externalFrees:  p.stats.externalFrees,
	}
	if p.debug != nil {
		p.debug.reset()
	}
	return errors.Join(errs...)
}
