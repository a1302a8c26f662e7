package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/sizepool/internal/logger"
	"github.com/joshuapare/sizepool/mem/pool"
	"github.com/joshuapare/sizepool/mem/sysmem"
)

// poolOptions mirrors pool.Config on the command line.
type poolOptions struct {
	minSize       int
	maxSize       int
	initialChunks int
	maxChunks     int
	passthrough   bool
	debug         bool
	backend       string
}

var poolOpts = defaultPoolOptions()

func defaultPoolOptions() poolOptions {
	return poolOptions{
		minSize:       pool.DefaultConfig.MinAllocSize,
		maxSize:       pool.DefaultConfig.MaxPooledSize,
		initialChunks: pool.DefaultConfig.InitialChunks,
		maxChunks:     pool.DefaultConfig.MaxChunksPerBlock,
		backend:       "heap",
	}
}

// addPoolFlags registers the pool configuration flags on cmd.
func addPoolFlags(cmd *cobra.Command, withMode bool) {
	d := defaultPoolOptions()
	f := cmd.Flags()
	f.IntVar(&poolOpts.minSize, "min-size", d.minSize, "Smallest chunk size; smaller requests round up")
	f.IntVar(&poolOpts.maxSize, "max-size", d.maxSize, "Largest pooled size; larger requests go to the backend")
	f.IntVar(&poolOpts.initialChunks, "initial-chunks", d.initialChunks, "Chunks in each size class's first block")
	f.IntVar(&poolOpts.maxChunks, "max-chunks", d.maxChunks, "Cap on chunks per block (0 = keep doubling)")
	f.BoolVar(&poolOpts.debug, "debug", false, "Track live pointers and report misuse")
	f.StringVar(&poolOpts.backend, "backend", d.backend, "System allocator: heap or mmap")
	if withMode {
		f.BoolVar(&poolOpts.passthrough, "passthrough", false, "Send every request to the backend")
	}
}

// config builds the pool configuration for mode.
func (o poolOptions) config(mode pool.Mode) *pool.Config {
	return &pool.Config{
		Name:              "poolctl-" + mode.String(),
		Mode:              mode,
		MinAllocSize:      o.minSize,
		MaxPooledSize:     o.maxSize,
		InitialChunks:     o.initialChunks,
		MaxChunksPerBlock: o.maxChunks,
		Debug:             o.debug,
		Logger:            logger.L,
	}
}

func (o poolOptions) mode() pool.Mode {
	if o.passthrough {
		return pool.ModePassThrough
	}
	return pool.ModePooled
}

// newBackend returns the named system allocator wrapped in a Counting
// backend so the command can report the traffic that reached it.
func (o poolOptions) newBackend() (*sysmem.Counting, error) {
	switch o.backend {
	case "heap":
		return sysmem.NewCounting(sysmem.NewHeap()), nil
	case "mmap":
		return sysmem.NewCounting(sysmem.NewMmap()), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want heap or mmap)", o.backend)
	}
}

// newPool builds a pool for mode over a fresh counting backend.
func (o poolOptions) newPool(mode pool.Mode) (*pool.Pool, *sysmem.Counting, error) {
	backend, err := o.newBackend()
	if err != nil {
		return nil, nil, err
	}
	p, err := pool.New(backend, o.config(mode))
	if err != nil {
		return nil, nil, err
	}
	return p, backend, nil
}
