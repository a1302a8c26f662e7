package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/sizepool/internal/logger"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logLevel string
	logFile  string
)

// printer groups digits in byte and call counts.
var printer = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "poolctl",
	Short: "Replay and benchmark allocation traces against a size-classed pool",
	Long: `poolctl drives the sizepool allocator with recorded or synthetic
interpreter allocation traces. It reports how many requests the pool served
from its size classes, how many reached the system allocator, and whether
teardown gave every block back.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initLogging() },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Close()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().
		StringVar(&logFile, "log-file", "", "Write JSON logs to this file instead of stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func initLogging() error {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	return logger.Init(logger.Options{
		Enabled: !quiet || logFile != "",
		Level:   level,
		File:    logFile,
	})
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		printer.Fprintf(os.Stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
