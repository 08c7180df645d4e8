package record

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	name      string
	available bool
}

func (s stubBackend) Name() string                                { return s.name }
func (s stubBackend) Available() bool                             { return s.available }
func (s stubBackend) Record(context.Context, Config) error        { return nil }
func (s stubBackend) ListDevices(context.Context) (string, error) { return "", nil }

func TestSelectBackendUsesPriorityOrder(t *testing.T) {
	t.Parallel()

	backend, err := SelectBackend([]Backend{
		stubBackend{name: "pw-record", available: false},
		stubBackend{name: "arecord", available: true},
		stubBackend{name: "ffmpeg", available: true},
	}, "auto")
	require.NoError(t, err)
	require.Equal(t, "arecord", backend.Name())
}

func TestSelectBackendUsesPreferredWhenAvailable(t *testing.T) {
	t.Parallel()

	backend, err := SelectBackend([]Backend{
		stubBackend{name: "pw-record", available: true},
		stubBackend{name: "arecord", available: true},
	}, "arecord")
	require.NoError(t, err)
	require.Equal(t, "arecord", backend.Name())
}

func TestSelectBackendErrors(t *testing.T) {
	t.Parallel()

	_, err := SelectBackend([]Backend{stubBackend{name: "pw-record"}}, "pw-record")
	require.ErrorContains(t, err, "not available")

	_, err = SelectBackend([]Backend{stubBackend{name: "pw-record", available: true}}, "sox")
	require.ErrorContains(t, err, "unknown backend")

	_, err = SelectBackend([]Backend{stubBackend{name: "arecord"}}, "")
	require.ErrorIs(t, err, ErrNoBackendAvailable)

	_, err = SelectBackend(nil, "auto")
	require.Error(t, err)
}

func TestDefaultBackendsPerOS(t *testing.T) {
	t.Parallel()

	names := func(backends []Backend) []string {
		out := make([]string, 0, len(backends))
		for _, b := range backends {
			out = append(out, b.Name())
		}
		return out
	}

	require.Equal(t, []string{"pw-record", "arecord", "ffmpeg"}, names(DefaultBackends("linux")))
	require.Equal(t, []string{"ffmpeg"}, names(DefaultBackends("darwin")))
	require.Empty(t, DefaultBackends("windows"))
}

func TestWholeSecondsRoundsUp(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1", wholeSeconds(0))
	require.Equal(t, "1", wholeSeconds(300*time.Millisecond))
	require.Equal(t, "4", wholeSeconds(4*time.Second))
	require.Equal(t, "5", wholeSeconds(4*time.Second+time.Millisecond))
}

func TestRecordRejectsMissingDuration(t *testing.T) {
	t.Parallel()

	err := (&alsaBackend{}).Record(context.Background(), Config{OutputPath: filepath.Join(t.TempDir(), "out.wav")})
	require.ErrorContains(t, err, "duration")
}

// installStub puts an executable shell script called name first on PATH.
func installStub(t *testing.T, name, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return dir
}

// installArgsStub installs a stub that writes its arguments, one per line,
// to the returned file and exits.
func installArgsStub(t *testing.T, name string) (dir, argsFile string) {
	t.Helper()

	dir = installStub(t, name, "printf '%s\\n' \"$@\" > \"$ARGS_FILE\"\n")
	argsFile = filepath.Join(dir, "args.txt")
	t.Setenv("ARGS_FILE", argsFile)
	return dir, argsFile
}

// installRunningStub installs a stub that touches READY_FILE and then blocks.
// With ignoreInterrupt it survives SIGINT and has to be killed.
func installRunningStub(t *testing.T, name string, ignoreInterrupt bool) (dir, readyFile string) {
	t.Helper()

	trap := "trap 'exit 0' INT\n"
	if ignoreInterrupt {
		trap = "trap '' INT\n"
	}
	dir = installStub(t, name, trap+"touch \"$READY_FILE\"\nwhile true; do sleep 0.05; done\n")
	readyFile = filepath.Join(dir, "ready")
	t.Setenv("READY_FILE", readyFile)
	return dir, readyFile
}

func waitForPath(t *testing.T, path string, timeout time.Duration) {
	t.Helper()

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, timeout, 10*time.Millisecond)
}

func readArgs(t *testing.T, path string) string {
	t.Helper()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}
