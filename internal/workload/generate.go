package workload

import (
	"math/rand"

	"github.com/eapache/queue"
)

// GenConfig shapes a synthetic trace.
type GenConfig struct {
	Ops        int   // allocate/resize steps, not counting the frees they cause
	Seed       int64 // same seed, same trace
	Window     int   // live allocations kept before the oldest is freed
	MaxSize    int   // largest request size
	ReallocPct int   // percent of steps that resize a live allocation
}

// DefaultGenConfig resembles a script churning through short-lived tables
// and strings.
var DefaultGenConfig = GenConfig{
	Ops:        10000,
	Seed:       1,
	Window:     256,
	MaxSize:    8192,
	ReallocPct: 10,
}

func (c GenConfig) withDefaults() GenConfig {
	if c.Ops <= 0 {
		c.Ops = DefaultGenConfig.Ops
	}
	if c.Window <= 0 {
		c.Window = DefaultGenConfig.Window
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultGenConfig.MaxSize
	}
	c.ReallocPct = min(max(c.ReallocPct, 0), 100)
	return c
}

// Generate builds a trace in which allocations die roughly in the order they
// were made: live ids sit in a FIFO and the oldest is freed whenever the
// window is full. Everything still live at the end is freed, so the trace
// leaves nothing behind.
func Generate(cfg GenConfig) []Op {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	live := queue.New()
	ops := make([]Op, 0, cfg.Ops*2)
	nextID := 0

	freeOldest := func() {
		id := live.Remove().(int)
		ops = append(ops, Op{Kind: KindFree, ID: id})
	}

	for range cfg.Ops {
		if live.Length() >= cfg.Window {
			freeOldest()
		}

		if live.Length() > 0 && rng.Intn(100) < cfg.ReallocPct {
			id := live.Get(rng.Intn(live.Length())).(int)
			ops = append(ops, Op{Kind: KindRealloc, ID: id, Size: genSize(rng, cfg.MaxSize)})
			continue
		}

		id := nextID
		nextID++
		live.Add(id)
		ops = append(ops, Op{Kind: KindAlloc, ID: id, Size: genSize(rng, cfg.MaxSize)})
	}

	for live.Length() > 0 {
		freeOldest()
	}
	return ops
}

// genSize favours small requests: most interpreter objects are a few words.
func genSize(rng *rand.Rand, maxSize int) int {
	var size int
	switch r := rng.Intn(100); {
	case r < 70:
		size = 1 + rng.Intn(64)
	case r < 95:
		size = 65 + rng.Intn(512)
	default:
		size = 577 + rng.Intn(max(maxSize-576, 1))
	}
	return min(size, maxSize)
}
