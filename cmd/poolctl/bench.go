package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/sizepool/internal/workload"
	"github.com/joshuapare/sizepool/mem/pool"
)

var (
	benchRounds int
)

func init() {
	cmd := newBenchCmd()
	addGenFlags(cmd)
	addPoolFlags(cmd, false)
	cmd.Flags().IntVar(&benchRounds, "rounds", 3, "Runs per mode; the fastest is reported")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench [trace]",
		Short: "Compare pooled and pass-through allocation",
		Long: `The bench command replays the same workload twice, once through the
size classes and once with every request sent to the backend, and compares
elapsed time and backend calls. Without a trace argument a synthetic workload
is generated from the gen flags.

Example:
  poolctl bench
  poolctl bench --ops 1000000 --rounds 5
  poolctl bench game.trace --backend mmap`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(args)
		},
	}
	return cmd
}

type benchReport struct {
	Ops         int       `json:"ops"`
	Rounds      int       `json:"rounds"`
	Pooled      runReport `json:"pooled"`
	PassThrough runReport `json:"passthrough"`
	Speedup     float64   `json:"speedup"`      // pass-through time / pooled time
	CallSavings float64   `json:"call_savings"` // fraction of backend allocs avoided
}

func runBench(args []string) error {
	ops, err := benchOps(args)
	if err != nil {
		return err
	}
	rounds := max(benchRounds, 1)

	rep := benchReport{Ops: len(ops), Rounds: rounds}
	if rep.Pooled, err = bestOf(ops, pool.ModePooled, rounds); err != nil {
		return err
	}
	if rep.PassThrough, err = bestOf(ops, pool.ModePassThrough, rounds); err != nil {
		return err
	}

	if pooled := rep.Pooled.Result.Elapsed; pooled > 0 {
		rep.Speedup = float64(rep.PassThrough.Result.Elapsed) / float64(pooled)
	}
	if direct := rep.PassThrough.Backend.Allocs; direct > 0 {
		rep.CallSavings = 1 - float64(rep.Pooled.Backend.Allocs)/float64(direct)
	}

	if jsonOut {
		return printJSON(rep)
	}

	printInfo("Workload: %d operations, best of %d\n\n", rep.Ops, rep.Rounds)
	printInfo("%-12s %14s %14s %14s\n", "MODE", "ELAPSED", "BACKEND ALLOCS", "PEAK BYTES")
	for _, r := range []runReport{rep.Pooled, rep.PassThrough} {
		printInfo("%-12s %14v %14d %14d\n",
			r.Mode, r.Result.Elapsed.Round(time.Microsecond), r.Backend.Allocs, r.Backend.PeakBytes)
	}
	printInfo("\nSpeedup: %.2fx\n", rep.Speedup)
	printInfo("Backend allocs avoided: %.1f%%\n", rep.CallSavings*100)
	return nil
}

func benchOps(args []string) ([]workload.Op, error) {
	if len(args) == 0 {
		printVerbose("Generating %d steps (seed %d)\n", genCfg.Ops, genCfg.Seed)
		return workload.Generate(genCfg), nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	ops, err := workload.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trace %s: %w", args[0], err)
	}
	return ops, nil
}

// bestOf runs ops rounds times against fresh pools and keeps the fastest run.
func bestOf(ops []workload.Op, mode pool.Mode, rounds int) (runReport, error) {
	var best runReport
	for i := range rounds {
		rep, err := runTrace(ops, mode, false)
		if err != nil {
			return runReport{}, err
		}
		printVerbose("  %s round %d: %v\n", mode, i+1, rep.Result.Elapsed)
		if i == 0 || rep.Result.Elapsed < best.Result.Elapsed {
			best = rep
		}
	}
	return best, nil
}
