package pool

import (
	"errors"
	"fmt"
	"sync"
)

// RegistryStats describes a registry's pools.
type RegistryStats struct {
	Pools int `json:"pools"` // Pools ever created
	Idle  int `json:"idle"`  // Pools released and waiting for reuse
}

// Registry hands out pools to interpreter instances and recycles them when the
// instance goes away, so a host that keeps creating and destroying
// interpreters does not rebuild a pool map each time.
//
// Individual pools stay single-threaded; the registry itself may be used from
// any goroutine.
type Registry struct {
	mu  sync.Mutex
	sys SystemAllocator
	cfg Config

	pools  []*Pool // indexed by Pool.Index
	idle   []int   // released pool indices, most recent last
	isIdle []bool  // isIdle[i] reports whether pools[i] is parked

	closed bool
}

// NewRegistry creates a registry whose pools share sys and config.
// nil arguments take the same defaults as New.
func NewRegistry(sys SystemAllocator, config *Config) (*Registry, error) {
	if config == nil {
		config = &DefaultConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Registry{sys: sys, cfg: *config}, nil
}

// Acquire returns an empty pool, reusing the most recently released one when
// there is one.
func (r *Registry) Acquire() (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	if n := len(r.idle); n > 0 {
		idx := r.idle[n-1]
		r.idle = r.idle[:n-1]
		r.isIdle[idx] = false
		return r.pools[idx], nil
	}

	p, err := New(r.sys, &r.cfg)
	if err != nil {
		return nil, err
	}
	p.index = len(r.pools)
	r.pools = append(r.pools, p)
	r.isIdle = append(r.isIdle, false)
	return p, nil
}

// Release resets p, returning its blocks to the system allocator, and parks it
// for the next Acquire.
func (r *Registry) Release(p *Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if p == nil {
		return fmt.Errorf("%w: nil pool", ErrNotRegistered)
	}
	idx := p.index
	if idx < 0 || idx >= len(r.pools) || r.pools[idx] != p || r.isIdle[idx] {
		return fmt.Errorf("%w: pool index %d", ErrNotRegistered, idx)
	}

	err := p.Reset()
	r.idle = append(r.idle, idx)
	r.isIdle[idx] = true
	return err
}

// Stats returns pool counts.
func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistryStats{Pools: len(r.pools), Idle: len(r.idle)}
}

// Close tears down every pool the registry created, idle or not.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true

	var errs []error
	for _, p := range r.pools {
		if err := p.Close(); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	r.pools = nil
	r.idle = nil
	r.isIdle = nil
	return errors.Join(errs...)
}
