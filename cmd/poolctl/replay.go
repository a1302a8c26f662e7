package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/sizepool/internal/logger"
	"github.com/joshuapare/sizepool/internal/workload"
	"github.com/joshuapare/sizepool/mem/pool"
	"github.com/joshuapare/sizepool/mem/sysmem"
)

var (
	replayVerify bool
)

func init() {
	cmd := newReplayCmd()
	addPoolFlags(cmd, true)
	cmd.Flags().BoolVar(&replayVerify, "verify", true, "Stamp and check buffer contents")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay an allocation trace",
		Long: `The replay command feeds a trace through the interpreter hook into a
pool and reports pool and backend statistics. Allocations the trace leaves
live are freed before the pool is closed.

Trace lines:
  a <id> <size>   allocate
  r <id> <size>   resize
  f <id>          free

Example:
  poolctl replay game.trace
  poolctl replay game.trace --passthrough
  poolctl replay game.trace --backend mmap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

// runReport is the outcome of one trace run against one pool.
type runReport struct {
	Mode    string               `json:"mode"`
	Result  workload.Result      `json:"result"`
	Pool    pool.Stats           `json:"pool"`
	Classes []pool.ClassStats    `json:"classes,omitempty"`
	Backend sysmem.CountingStats `json:"backend"`
	Leaked  int                  `json:"leaked"` // backend buffers still live after Close
}

func runReplay(args []string) error {
	tracePath := args[0]

	printVerbose("Reading trace: %s\n", tracePath)
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	ops, err := workload.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse trace %s: %w", tracePath, err)
	}
	printVerbose("Loaded %d operations\n", len(ops))

	rep, err := runTrace(ops, poolOpts.mode(), replayVerify)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(struct {
			Trace string `json:"trace"`
			runReport
		}{tracePath, rep})
	}

	printInfo("Trace: %s\n", tracePath)
	printRun(rep)
	return nil
}

// runTrace replays ops against a fresh pool and closes it.
func runTrace(ops []workload.Op, mode pool.Mode, verify bool) (runReport, error) {
	p, backend, err := poolOpts.newPool(mode)
	if err != nil {
		return runReport{}, err
	}

	res, replayErr := workload.Replay(p, ops, workload.ReplayOptions{Verify: verify})

	rep := runReport{
		Mode:   mode.String(),
		Result: res,
		Pool:   p.Stats(),
	}
	if verbose {
		rep.Classes = p.Classes()
	}

	closeErr := p.Close()
	rep.Backend = backend.Stats()
	rep.Leaked = backend.Outstanding()

	if replayErr != nil {
		return rep, fmt.Errorf("replay failed: %w", replayErr)
	}
	if closeErr != nil {
		return rep, fmt.Errorf("failed to close pool: %w", closeErr)
	}
	if rep.Leaked > 0 {
		logger.L.Warn("backend buffers outstanding after close", "mode", rep.Mode, "buffers", rep.Leaked)
	}
	return rep, nil
}

func printRun(rep runReport) {
	r := rep.Result
	printInfo("Mode: %s\n", rep.Mode)
	printInfo("\nOperations:\n")
	printInfo("  Total: %d (%d allocs, %d reallocs, %d frees)\n", r.Ops, r.Allocs, r.Reallocs, r.Frees)
	if r.Leftover > 0 {
		printInfo("  Left live by trace: %d\n", r.Leftover)
	}
	printInfo("  Peak live: %d allocations, %d bytes\n", r.PeakLive, r.PeakLiveBytes)
	printInfo("  Elapsed: %v\n", r.Elapsed)

	s := rep.Pool
	printInfo("\nPool:\n")
	printInfo("  Size classes: %d\n", s.Classes)
	printInfo("  Blocks: %d (%d bytes)\n", s.Blocks, s.BlockBytes)
	printInfo("  Pooled allocs: %d (%d recycled)\n", s.InternalAllocs, s.RecycledAllocs)
	printInfo("  Backend allocs: %d\n", s.ExternalAllocs)
	printInfo("  Reallocs: %d\n", s.Reallocs)

	if len(rep.Classes) > 0 {
		printInfo("\nSize classes:\n")
		printInfo("  %8s %8s %8s %7s %8s\n", "SIZE", "CARVED", "FREE", "BLOCKS", "NEXT")
		for _, c := range rep.Classes {
			printInfo("  %8d %8d %8d %7d %8d\n", c.Size, c.CarvedChunks, c.FreeChunks, c.Blocks, c.NextBlockChunks)
		}
	}

	b := rep.Backend
	printInfo("\nBackend:\n")
	printInfo("  Calls: %d allocs, %d frees\n", b.Allocs, b.Frees)
	printInfo("  Peak: %d bytes\n", b.PeakBytes)
	if rep.Leaked > 0 {
		printInfo("  Outstanding after close: %d buffers\n", rep.Leaked)
	}
}
