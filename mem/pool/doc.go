// Package pool provides a size-classed pooling allocator for interpreter
// allocator hooks.
//
// # Overview
//
// Scripting runtimes allocate and free small objects at a furious rate and
// always know the size of what they free. Pool exploits that: it keeps a free
// list per exact request size and refills an empty list by carving one large
// block from the system allocator, so most calls never leave the pool.
//
// # Operations
//
//   - Allocate(size): pop a chunk for size, carving a new block when empty
//   - Free(buf, size): push the chunk back onto the free list for size
//   - Reallocate(buf, newSize, oldSize): allocate, copy, zero the old buffer, free
//   - Close(): return every block to the system allocator
//
// Sizes below Config.MinAllocSize are rounded up to it. Sizes above
// Config.MaxPooledSize, and every size in ModePassThrough, go straight to the
// system allocator on both Allocate and Free.
//
// # Usage Example
//
//	p, err := pool.New(sysmem.NewHeap(), nil)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	buf, err := p.Allocate(24)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	// The caller remembers the size
//	err = p.Free(buf, 24)
//
// # Size Classes
//
// There is no rounding to power-of-two buckets: a request for 24 bytes and a
// request for 25 bytes live in different classes. Each class carves its first
// block with Config.InitialChunks chunks and doubles the count for every block
// after that:
//
//	Block 0:  16 chunks
//	Block 1:  32 chunks
//	Block 2:  64 chunks
//	...
//
// The first chunk of a fresh block goes straight to the caller and the rest
// are queued in address order behind it.
//
// # Memory Ownership
//
// Blocks are never returned piecemeal. Reset and Close release every block,
// even ones whose chunks are still checked out; callers are expected to have
// freed everything first. Chunk contents are not zeroed on carve or on free.
// Reallocate is the exception: it zeroes the buffer it moves away from.
//
// # Misuse
//
// Freeing with the wrong size or freeing twice is undefined in the default
// configuration. With Config.Debug the pool tracks every live pointer and
// reports both as *MisuseError. Using a pool after Close always fails with
// ErrClosed. In ModePassThrough Free ignores its size argument.
//
// # Thread Safety
//
// Pool instances are not thread-safe. Use one pool per interpreter, or
// hand pools out through a Registry, which is safe for concurrent use.
//
// # Related Packages
//
//   - github.com/joshuapare/sizepool/mem/sysmem: System allocator backends
//   - github.com/joshuapare/sizepool/mem/hook: Single-entry interpreter hook
package pool
