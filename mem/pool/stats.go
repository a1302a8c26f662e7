package pool

import (
	"cmp"
	"slices"
)

// Stats is a snapshot of a pool's bookkeeping and traffic since construction
// or the last Reset. The External counters survive Reset, since pass-through
// buffers stay valid across it.
type Stats struct {
	Classes    int   `json:"classes"`     // Live size classes
	Blocks     int   `json:"blocks"`      // Blocks carved and still owned
	BlockBytes int64 `json:"block_bytes"` // Bytes held in blocks
	FreeBytes  int64 `json:"free_bytes"`  // Bytes sitting on free lists

	InternalAllocs uint64 `json:"internal_allocs"` // Served by a size class
	RecycledAllocs uint64 `json:"recycled_allocs"` // Subset of InternalAllocs popped from a free list
	ExternalAllocs uint64 `json:"external_allocs"` // Forwarded to the system allocator
	InternalFrees  uint64 `json:"internal_frees"`  // Pushed onto a free list
	ExternalFrees  uint64 `json:"external_frees"`  // Forwarded to the system allocator
	Reallocs       uint64 `json:"reallocs"`        // Reallocate calls that moved a live buffer
}

// Live returns the number of allocations handed out and not yet freed.
// Frees of chunks that were invalidated by Reset can outnumber allocations;
// Live reports zero then.
func (s Stats) Live() uint64 {
	out := s.InternalAllocs + s.ExternalAllocs
	in := s.InternalFrees + s.ExternalFrees
	if in > out {
		return 0
	}
	return out - in
}

// ClassStats describes one size class.
type ClassStats struct {
	Size            int `json:"size"`              // Chunk size in bytes
	FreeChunks      int `json:"free_chunks"`       // Chunks on the free list
	CarvedChunks    int `json:"carved_chunks"`     // Chunks carved across all blocks
	Blocks          int `json:"blocks"`            // Blocks carved for this class
	NextBlockChunks int `json:"next_block_chunks"` // Growth counter: chunks in the next block
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	s := Stats{
		Classes:        len(p.classes),
		Blocks:         len(p.blocks),
		BlockBytes:     p.stats.blockBytes,
		InternalAllocs: p.stats.internalAllocs,
		RecycledAllocs: p.stats.recycledAllocs,
		ExternalAllocs: p.stats.externalAllocs,
		InternalFrees:  p.stats.internalFrees,
		ExternalFrees:  p.stats.externalFrees,
		Reallocs:       p.stats.reallocs,
	}
	for _, c := range p.classes {
		s.FreeBytes += int64(len(c.free)) * int64(c.size)
	}
	return s
}

// Class returns the stats of the class for an already-normalized size.
func (p *Pool) Class(size int) (ClassStats, bool) {
	c, ok := p.classes[size]
	if !ok {
		return ClassStats{}, false
	}
	return c.stats(), true
}

// Classes returns every size class ordered by size.
func (p *Pool) Classes() []ClassStats {
	out := make([]ClassStats, 0, len(p.classes))
	for _, c := range p.classes {
		out = append(out, c.stats())
	}
	slices.SortFunc(out, func(a, b ClassStats) int {
		return cmp.Compare(a.Size, b.Size)
	})
	return out
}

func (c *sizeClass) stats() ClassStats {
	return ClassStats{
		Size:            c.size,
		FreeChunks:      len(c.free),
		CarvedChunks:    c.carved,
		Blocks:          c.blocks,
		NextBlockChunks: c.next,
	}
}

// LogStats writes one Info record summarising the pool, tagged with handle
// (typically the name of the interpreter that owns it).
func (p *Pool) LogStats(handle string) {
	s := p.Stats()
	p.log.Info("pool stats",
		"handle", handle,
		"index", p.index,
		"mode", p.cfg.Mode.String(),
		"classes", s.Classes,
		"blocks", s.Blocks,
		"block_bytes", s.BlockBytes,
		"free_bytes", s.FreeBytes,
		"int_allocs", s.InternalAllocs,
		"ext_allocs", s.ExternalAllocs,
		"rec_allocs", s.RecycledAllocs,
		"live", s.Live(),
	)
}
