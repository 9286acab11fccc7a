package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minicollider/internal/testutil"
	"github.com/roach88/minicollider/internal/wire"
)

// engineFixture is an engine source directory whose "built" binary is a
// shell script, plus a config file pointing at it.
type engineFixture struct {
	source string
	config string
}

func newEngineFixture(t *testing.T, port int, script string) engineFixture {
	t.Helper()
	source := t.TempDir()
	if script != "" {
		dir := filepath.Join(source, ".build", "default")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "engine"), []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	}
	cfg := fmt.Sprintf("engine:\n  source: %s\n  host: 127.0.0.1\n  port: %d\n", source, port)
	return engineFixture{source: source, config: writeFile(t, "mc1.yaml", cfg)}
}

func runShell(t *testing.T, f engineFixture, format string, input io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := NewRunCommand(&RootOptions{Format: format, ConfigPath: f.config})
	cmd.SetIn(input)
	return execute(cmd, args...)
}

func TestRunShell(t *testing.T) {
	capture := testutil.NewUDPCapture(t)
	f := newEngineFixture(t, capture.Port(), "exec sleep 30")

	input := strings.NewReader("help\npatches\n\ncompile sine\nbogus\ncompile\nexit\n")
	out, err := runShell(t, f, "text", input, "--no-build")
	require.NoError(t, err)

	assert.Contains(t, out, "mc1> ")
	assert.Contains(t, out, "compile <patch>   compile a patch and send it to the engine")
	assert.Contains(t, out, "detune  freq=440 amp=0.1")
	assert.Contains(t, out, "✓ Sent sine (54 bytes)")
	assert.Contains(t, out, `Error [E013]: unknown command "bogus" (try help)`)
	assert.Contains(t, out, "Error [E013]: usage: compile <patch>")

	assert.Equal(t, wire.Frame(wire.CompileMessage(sineWire(t))), capture.Next(t, time.Second))
	capture.None(t, 50*time.Millisecond)
}

func TestRunShellJSON(t *testing.T) {
	capture := testutil.NewUDPCapture(t)
	f := newEngineFixture(t, capture.Port(), "exec sleep 30")

	out, err := runShell(t, f, "json", strings.NewReader("compile detune\nquit\n"), "--no-build")
	require.NoError(t, err)
	capture.Expect(t, 2, time.Second)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, "output: %s", out)

	var compiled SendResult
	resp := decodeResponse(t, lines[0], &compiled)
	assert.Equal(t, "detune", compiled.Patch)
	assert.NotEmpty(t, resp.TraceID)

	var quit SendResult
	decodeResponse(t, lines[1], &quit)
	assert.Equal(t, "quit", quit.Message)
}

func TestRunEndsWhenEngineExits(t *testing.T) {
	f := newEngineFixture(t, 5555, "exit 0")

	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	out, err := runShell(t, f, "text", r, "--no-build")
	require.NoError(t, err)
	assert.Contains(t, out, "engine exited")
}

func TestRunEndsOnCancel(t *testing.T) {
	f := newEngineFixture(t, 5555, "exec sleep 30")

	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	cmd := NewRunCommand(&RootOptions{Format: "text", ConfigPath: f.config})
	cmd.SetIn(r)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--no-build"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunStartFailure(t *testing.T) {
	f := newEngineFixture(t, 5555, "")

	out, err := runShell(t, f, "json", strings.NewReader(""), "--no-build")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, ErrCodeStartFailed, resp.Error.Code)
}

func TestRunBuildFailure(t *testing.T) {
	// The source directory has no CMakePresets.json, so configuring fails
	// whether or not cmake is installed.
	f := newEngineFixture(t, 5555, "")

	out, err := runShell(t, f, "json", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, ErrCodeBuildFailed, resp.Error.Code)
}
