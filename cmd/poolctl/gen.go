package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/sizepool/internal/workload"
)

var (
	genCfg    = workload.DefaultGenConfig
	genOutput string
)

func init() {
	cmd := newGenCmd()
	addGenFlags(cmd)
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(cmd)
}

// addGenFlags registers the synthetic workload flags on cmd.
func addGenFlags(cmd *cobra.Command) {
	d := workload.DefaultGenConfig
	f := cmd.Flags()
	f.IntVar(&genCfg.Ops, "ops", d.Ops, "Allocation and resize steps to generate")
	f.Int64Var(&genCfg.Seed, "seed", d.Seed, "Random seed")
	f.IntVar(&genCfg.Window, "window", d.Window, "Live allocations kept before the oldest is freed")
	f.IntVar(&genCfg.MaxSize, "max-alloc", d.MaxSize, "Largest request size in bytes")
	f.IntVar(&genCfg.ReallocPct, "realloc-pct", d.ReallocPct, "Percent of steps that resize a live allocation")
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic allocation trace",
		Long: `The gen command writes a deterministic interpreter-like trace: mostly
small requests, a FIFO window of live allocations, and occasional resizes.
Every allocation is freed by the end of the trace.

Example:
  poolctl gen --ops 100000 -o churn.trace
  poolctl gen --seed 7 --window 1024 --max-alloc 65536 > big.trace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	ops := workload.Generate(genCfg)

	var w io.Writer = os.Stdout
	if genOutput != "" {
		f, err := os.Create(genOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := workload.Write(w, ops); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}

	if genOutput != "" {
		printVerbose("Wrote %d operations to %s\n", len(ops), genOutput)
	}
	return nil
}
