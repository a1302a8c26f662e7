package pool

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

// PointerSize is the size of a machine pointer in bytes. It is the floor for
// MinAllocSize so that every chunk could hold a free-list link.
const PointerSize = strconv.IntSize / 8

const (
	defaultMaxPooledSize = 4096
	defaultInitialChunks = 16
)

// Mode selects pooled operation or plain pass-through to the system allocator.
type Mode uint8

const (
	// ModePooled serves eligible sizes from per-size free lists.
	ModePooled Mode = iota

	// ModePassThrough forwards every Allocate and Free to the system allocator.
	// It exists for hosts that want the pool's API without its behaviour.
	ModePassThrough
)

// String returns the mode name used in logs and CLI flags.
func (m Mode) String() string {
	switch m {
	case ModePooled:
		return "pooled"
	case ModePassThrough:
		return "passthrough"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Config defines how a Pool classifies and grows its size classes.
// Zero-valued numeric fields take their defaults.
type Config struct {
	// Name for this configuration (for logs and benchmarks)
	Name string

	// Mode is fixed for the pool's lifetime.
	Mode Mode

	// MinAllocSize is the smallest chunk handed out; smaller requests are
	// rounded up to it. Values below PointerSize are raised to PointerSize.
	MinAllocSize int

	// MaxPooledSize is the largest normalized size served from a size class.
	// Anything larger goes straight to the system allocator.
	MaxPooledSize int

	// InitialChunks is the number of chunks carved into a size class's first block.
	InitialChunks int

	// MaxChunksPerBlock stops the per-class growth counter from doubling past
	// this value. 0 lets it double without bound.
	MaxChunksPerBlock int

	// Debug tracks every live pointer so contract violations surface as
	// *MisuseError instead of silently corrupting free lists.
	Debug bool

	// Logger receives block-carving and teardown records. nil discards them.
	Logger *slog.Logger
}

// Predefined configurations.
var (
	// Standard: interpreter-sized defaults. Sizes up to 4KB are pooled and each
	// class starts with 16 chunks per block.
	ConfigStandard = Config{
		Name:          "Standard",
		MinAllocSize:  PointerSize,
		MaxPooledSize: defaultMaxPooledSize,
		InitialChunks: defaultInitialChunks,
	}

	// Compact: for many short-lived interpreters. Only small objects are pooled
	// and block growth is capped so an idle class never pins much memory.
	ConfigCompact = Config{
		Name:              "Compact",
		MinAllocSize:      PointerSize,
		MaxPooledSize:     256,
		InitialChunks:     4,
		MaxChunksPerBlock: 1024,
	}

	// PassThrough: every request goes to the system allocator.
	ConfigPassThrough = Config{
		Name:          "PassThrough",
		Mode:          ModePassThrough,
		MinAllocSize:  PointerSize,
		MaxPooledSize: defaultMaxPooledSize,
		InitialChunks: defaultInitialChunks,
	}

	// Debug: Standard with pointer tracking enabled.
	ConfigDebug = Config{
		Name:          "Debug",
		MinAllocSize:  PointerSize,
		MaxPooledSize: defaultMaxPooledSize,
		InitialChunks: defaultInitialChunks,
		Debug:         true,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigStandard
)

// withDefaults fills zero-valued fields and applies the pointer-size floor.
func (c Config) withDefaults() Config {
	if c.MinAllocSize == 0 {
		c.MinAllocSize = PointerSize
	}
	if c.MinAllocSize > 0 && c.MinAllocSize < PointerSize {
		c.MinAllocSize = PointerSize
	}
	if c.MaxPooledSize == 0 {
		c.MaxPooledSize = defaultMaxPooledSize
	}
	if c.InitialChunks == 0 {
		c.InitialChunks = defaultInitialChunks
	}
	return c
}

// Validate reports whether the configuration, after defaults are applied,
// describes a usable pool.
func (c Config) Validate() error {
	c = c.withDefaults()

	switch {
	case c.Mode != ModePooled && c.Mode != ModePassThrough:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, c.Mode)
	case c.MinAllocSize < 0:
		return fmt.Errorf("%w: MinAllocSize %d is negative", ErrInvalidConfig, c.MinAllocSize)
	case c.MaxPooledSize < c.MinAllocSize:
		return fmt.Errorf("%w: MaxPooledSize %d is below MinAllocSize %d",
			ErrInvalidConfig, c.MaxPooledSize, c.MinAllocSize)
	case c.InitialChunks < 1:
		return fmt.Errorf("%w: InitialChunks %d must be at least 1", ErrInvalidConfig, c.InitialChunks)
	case c.MaxChunksPerBlock < 0:
		return fmt.Errorf("%w: MaxChunksPerBlock %d is negative", ErrInvalidConfig, c.MaxChunksPerBlock)
	case c.MaxChunksPerBlock != 0 && c.MaxChunksPerBlock < c.InitialChunks:
		return fmt.Errorf("%w: MaxChunksPerBlock %d is below InitialChunks %d",
			ErrInvalidConfig, c.MaxChunksPerBlock, c.InitialChunks)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
