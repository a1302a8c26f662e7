package pool

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveAlloc is what a host keeps for each allocation: the pointer, the size
// it asked for, and the byte pattern it wrote.
type liveAlloc struct {
	buf      []byte
	size     int
	seed     byte
	external bool // served by the system allocator
}

// Test_Property_RandomAllocFreeRealloc performs seeded random operations and
// checks, after every step, that every live buffer still holds its pattern
// and that the pool's bookkeeping agrees with the host's.
func Test_Property_RandomAllocFreeRealloc(t *testing.T) {
	for _, cfg := range []Config{ConfigStandard, ConfigCompact, ConfigPassThrough, ConfigDebug} {
		t.Run(cfg.Name, func(t *testing.T) {
			p, sys := newCountingPool(t, &cfg)
			rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility

			var live []liveAlloc
			seed := byte(0)
			growth := map[int]int{}

			for step := range 3000 {
				switch op := rng.Intn(10); {
				case op < 5 || len(live) == 0: // Allocate
					size := randomSize(rng)
					before := p.Stats().ExternalAllocs
					buf, err := p.Allocate(size)
					require.NoError(t, err, "step %d", step)
					require.Len(t, buf, size)
					seed++
					fill(buf, seed)
					external := p.Stats().ExternalAllocs > before
					require.Equal(t, !p.CanPool(p.normalize(size)), external, "step %d", step)
					live = append(live, liveAlloc{buf, size, seed, external})

				case op < 8: // Free
					i := rng.Intn(len(live))
					a := live[i]
					requirePattern(t, a.buf, a.seed)
					before := p.Stats().ExternalFrees
					require.NoError(t, p.Free(a.buf, a.size), "step %d", step)
					// Free takes the same path Allocate did for this size
					require.Equal(t, a.external, p.Stats().ExternalFrees > before, "step %d", step)
					live[i] = live[len(live)-1]
					live = live[:len(live)-1]

				default: // Reallocate
					i := rng.Intn(len(live))
					a := live[i]
					newSize := randomSize(rng)
					before := p.Stats()
					out, err := p.Reallocate(a.buf, newSize, a.size)
					require.NoError(t, err, "step %d", step)
					requirePattern(t, out[:min(newSize, a.size)], a.seed)
					after := p.Stats()
					require.Equal(t, a.external, after.ExternalFrees > before.ExternalFrees, "step %d", step)
					seed++
					fill(out, seed)
					live[i] = liveAlloc{out, newSize, seed, after.ExternalAllocs > before.ExternalAllocs}
				}

				// Growth counters never shrink
				for _, cls := range p.Classes() {
					require.GreaterOrEqual(t, cls.NextBlockChunks, growth[cls.Size])
					growth[cls.Size] = cls.NextBlockChunks
				}
			}

			for _, a := range live {
				requirePattern(t, a.buf, a.seed)
			}
			assert.Equal(t, uint64(len(live)), p.Stats().Live())

			// Free pass-through allocations so the backend count is exact,
			// then let Close reclaim the blocks behind everything else.
			for _, a := range live {
				if a.external {
					require.NoError(t, p.Free(a.buf, a.size))
				}
			}
			require.Equal(t, p.Stats().Blocks, sys.Outstanding())
			require.NoError(t, p.Close())
			s := sys.Stats()
			assert.Equal(t, s.Allocs, s.Frees, "blocks carved == blocks released")
		})
	}
}

// randomSize favours small interpreter-like sizes with an occasional large one.
func randomSize(rng *rand.Rand) int {
	switch r := rng.Intn(100); {
	case r < 70:
		return rng.Intn(64)
	case r < 95:
		return 64 + rng.Intn(512)
	default:
		return 4000 + rng.Intn(8000)
	}
}
