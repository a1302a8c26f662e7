package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/sizepool/internal/workload"
	"github.com/joshuapare/sizepool/mem/pool"
)

var smallWorkload = workload.GenConfig{Ops: 2000, Seed: 3, Window: 64, MaxSize: 6000, ReallocPct: 10}

func TestReplayCommand_Text(t *testing.T) {
	resetFlags(t)
	path := writeTrace(t, smallWorkload)

	out, err := captureOutput(t, func() error {
		return runReplay([]string{path})
	})
	require.NoError(t, err)

	for _, want := range []string{"Mode: pooled", "Operations:", "Pool:", "Backend:", "Size classes:"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Outstanding after close")
}

func TestReplayCommand_JSON(t *testing.T) {
	tests := []struct {
		name        string
		passthrough bool
		debug       bool
		backend     string
		wantMode    string
	}{
		{name: "pooled heap", backend: "heap", wantMode: "pooled"},
		{name: "passthrough", passthrough: true, backend: "heap", wantMode: "passthrough"},
		{name: "debug", debug: true, backend: "heap", wantMode: "pooled"},
		{name: "mmap", backend: "mmap", wantMode: "pooled"},
	}

	path := writeTrace(t, smallWorkload)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			jsonOut = true
			poolOpts.passthrough = tt.passthrough
			poolOpts.debug = tt.debug
			poolOpts.backend = tt.backend

			out, err := captureOutput(t, func() error {
				return runReplay([]string{path})
			})
			require.NoError(t, err)

			var rep struct {
				Trace string `json:"trace"`
				runReport
			}
			require.NoError(t, json.Unmarshal([]byte(out), &rep))

			assert.Equal(t, path, rep.Trace)
			assert.Equal(t, tt.wantMode, rep.Mode)
			assert.Equal(t, rep.Result.Allocs, rep.Result.Frees)
			assert.Zero(t, rep.Leaked)
			assert.Zero(t, rep.Pool.Live())
			assert.Equal(t, rep.Backend.Allocs, rep.Backend.Frees)

			if tt.passthrough {
				assert.Zero(t, rep.Pool.Blocks)
				assert.Zero(t, rep.Pool.InternalAllocs)
			} else {
				assert.Positive(t, rep.Pool.Blocks)
				assert.Positive(t, rep.Pool.RecycledAllocs)
			}
		})
	}
}

func TestReplayCommand_Errors(t *testing.T) {
	resetFlags(t)

	err := runReplay([]string{filepath.Join(t.TempDir(), "missing.trace")})
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.trace")
	require.NoError(t, os.WriteFile(bad, []byte("a 1 8\nz 1\n"), 0644))
	err = runReplay([]string{bad})
	require.ErrorIs(t, err, workload.ErrSyntax)

	orphan := filepath.Join(t.TempDir(), "orphan.trace")
	require.NoError(t, os.WriteFile(orphan, []byte("f 9\n"), 0644))
	_, err = captureOutput(t, func() error { return runReplay([]string{orphan}) })
	require.ErrorIs(t, err, workload.ErrUnknownID)

	path := writeTrace(t, smallWorkload)
	poolOpts.backend = "tape"
	err = runReplay([]string{path})
	require.ErrorContains(t, err, "unknown backend")

	poolOpts = defaultPoolOptions()
	poolOpts.maxSize = 1
	err = runReplay([]string{path})
	require.ErrorIs(t, err, pool.ErrInvalidConfig)
}

func TestGenCommand_File(t *testing.T) {
	resetFlags(t)
	genCfg = smallWorkload
	genOutput = filepath.Join(t.TempDir(), "gen.trace")

	require.NoError(t, runGen())

	f, err := os.Open(genOutput)
	require.NoError(t, err)
	defer f.Close()

	ops, err := workload.Parse(f)
	require.NoError(t, err)
	assert.Equal(t, workload.Generate(smallWorkload), ops)
}

func TestGenCommand_Stdout(t *testing.T) {
	resetFlags(t)
	genCfg = workload.GenConfig{Ops: 10, Seed: 1, Window: 4, MaxSize: 32}

	out, err := captureOutput(t, runGen)
	require.NoError(t, err)
	assert.Contains(t, out, "a 0 ")
	assert.Contains(t, out, "f 0\n")
}

func TestBenchCommand_JSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	genCfg = workload.GenConfig{Ops: 5000, Seed: 8, Window: 64, MaxSize: 256}

	out, err := captureOutput(t, func() error { return runBench(nil) })
	require.NoError(t, err)

	var rep benchReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	assert.Equal(t, 1, rep.Rounds)
	assert.Equal(t, "pooled", rep.Pooled.Mode)
	assert.Equal(t, "passthrough", rep.PassThrough.Mode)
	assert.Less(t, rep.Pooled.Backend.Allocs, rep.PassThrough.Backend.Allocs)
	assert.Greater(t, rep.CallSavings, 0.5)
}

func TestBenchCommand_TextFromTrace(t *testing.T) {
	resetFlags(t)
	path := writeTrace(t, smallWorkload)

	out, err := captureOutput(t, func() error { return runBench([]string{path}) })
	require.NoError(t, err)
	assert.Contains(t, out, "Speedup:")
	assert.Contains(t, out, "passthrough")
}

func TestPrintInfo_GroupsDigits(t *testing.T) {
	resetFlags(t)
	out, err := captureOutput(t, func() error {
		printInfo("%d bytes\n", 1234567)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1,234,567 bytes\n", out)
}

func TestInitLogging(t *testing.T) {
	resetFlags(t)
	t.Cleanup(func() { logLevel = "warn" })

	logLevel = "shout"
	require.Error(t, initLogging())

	logLevel = "debug"
	logFile = filepath.Join(t.TempDir(), "poolctl.log")
	require.NoError(t, initLogging())
	t.Cleanup(func() { logFile = "" })

	path := writeTrace(t, workload.GenConfig{Ops: 50, Seed: 1, Window: 8, MaxSize: 64})
	_, err := captureOutput(t, func() error { return runReplay([]string{path}) })
	require.NoError(t, err)
	require.NoError(t, rootCmd.PersistentPostRunE(rootCmd, nil))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"carved block"`)
	assert.Contains(t, string(data), `"msg":"pool stats"`)
}
