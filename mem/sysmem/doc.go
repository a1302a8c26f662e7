// Package sysmem provides the "system allocator" backends that sit underneath
// a size-class pool.
//
// # Overview
//
// A pool only asks its backend for two things: a fresh buffer of exactly n
// bytes, and to take such a buffer back. Everything in this package satisfies
// the Allocator interface:
//
//   - Heap: plain Go heap slices; Free is a no-op and the GC reclaims memory
//   - Mmap: anonymous private mappings (mmap on Unix, VirtualAlloc on Windows),
//     falling back to Heap on other platforms
//   - Counting: wraps another Allocator and records every call; used by the
//     pool tests to prove teardown releases every block, and by poolctl to
//     report backend traffic
//   - Limited: wraps another Allocator and enforces a live-byte budget, the
//     way an interpreter memory limit does
//
// # Buffer Identity
//
// Backends hand out buffers with len == cap == n. Free must receive a slice
// with the same base address and capacity; the length may be shorter, since
// callers often hold a re-sliced view.
//
// # Thread Safety
//
// Heap and Mmap are stateless. Counting and Limited guard their bookkeeping
// with a mutex so a single backend may be shared by pools living on different
// goroutines.
package sysmem
