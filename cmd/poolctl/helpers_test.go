package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/sizepool/internal/workload"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	// Drain concurrently so large outputs cannot block on a full pipe
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}

// resetFlags restores every command-line variable to its default.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut = false, false, false
	logLevel, logFile = "warn", ""
	poolOpts = defaultPoolOptions()
	replayVerify = true
	genCfg = workload.DefaultGenConfig
	genOutput = ""
	benchRounds = 1
}

// writeTrace writes a synthetic trace into a temp dir and returns its path.
func writeTrace(t *testing.T, cfg workload.GenConfig) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.trace")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, workload.Write(f, workload.Generate(cfg)))
	require.NoError(t, f.Close())
	return path
}
