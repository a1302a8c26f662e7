package pool

// sizeClass is the bookkeeping for one normalized allocation size.
//
// The free list is a LIFO stack of chunk views; the last element is the head.
// Links live here rather than inside the chunks, so a chunk's bytes are never
// reinterpreted while it sits on the list.
type sizeClass struct {
	size int      // chunk size in bytes
	free [][]byte // free chunks, head last
	next int      // chunks to carve into the next block (growth counter)

	blocks int // blocks carved for this class
	carved int // chunks carved across all blocks
}

func newSizeClass(size, initialChunks int) *sizeClass {
	return &sizeClass{size: size, next: initialChunks}
}

// pop removes and returns the head chunk, or nil when the list is empty.
func (c *sizeClass) pop() []byte {
	n := len(c.free)
	if n == 0 {
		return nil
	}
	chunk := c.free[n-1]
	c.free[n-1] = nil
	c.free = c.free[:n-1]
	return chunk
}

// push makes chunk the new head.
func (c *sizeClass) push(chunk []byte) {
	c.free = append(c.free, chunk)
}

// carve partitions block into chunks, links chunks 1..n-1 so that chunk 1 is
// the head and later pops walk the block in address order, and returns chunk 0.
func (c *sizeClass) carve(block []byte, numChunks int) []byte {
	size := c.size
	if cap(c.free)-len(c.free) < numChunks-1 {
		grown := make([][]byte, len(c.free), len(c.free)+numChunks-1)
		copy(grown, c.free)
		c.free = grown
	}
	for i := numChunks - 1; i >= 1; i-- {
		off := i * size
		c.free = append(c.free, block[off:off+size:off+size])
	}
	c.blocks++
	c.carved += numChunks
	return block[0:size:size]
}

// grow doubles the growth counter, stopping at limit when limit is non-zero.
func (c *sizeClass) grow(limit int) {
	next := c.next * 2
	if limit > 0 && next > limit {
		next = limit
	}
	if next > c.next {
		c.next = next
	}
}
