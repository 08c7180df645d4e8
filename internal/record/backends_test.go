package record

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArecordPassesChunkArguments(t *testing.T) {
	dir, argsFile := installArgsStub(t, "arecord")

	backend := &alsaBackend{}
	require.True(t, backend.Available())

	err := backend.Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   4 * time.Second,
		Input:      "hw:1,0",
	})
	require.NoError(t, err)

	args := readArgs(t, argsFile)
	require.Contains(t, args, "-d\n4\n")
	require.Contains(t, args, "-r\n16000\n")
	require.Contains(t, args, "-c\n1\n")
	require.Contains(t, args, "-D\nhw:1,0\n")
}

func TestArecordNoInputOmitsDevice(t *testing.T) {
	dir, argsFile := installArgsStub(t, "arecord")

	err := (&alsaBackend{}).Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   time.Second,
	})
	require.NoError(t, err)
	require.NotContains(t, readArgs(t, argsFile), "-D")
}

func TestPipewirePassesTarget(t *testing.T) {
	dir, argsFile := installArgsStub(t, "pw-record")

	err := (&pipewireBackend{}).Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   time.Second,
		SampleRate: 48000,
		Input:      "42",
	})
	require.NoError(t, err)

	args := readArgs(t, argsFile)
	require.Contains(t, args, "--rate\n48000\n")
	require.Contains(t, args, "--target\n42\n")
}

func TestFFMPEGLinuxPinsExplicitFormat(t *testing.T) {
	dir, argsFile := installArgsStub(t, "ffmpeg")

	err := (&ffmpegBackend{goos: "linux"}).Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   2 * time.Second,
		Format:     "alsa",
	})
	require.NoError(t, err)

	args := readArgs(t, argsFile)
	require.Contains(t, args, "-f\nalsa\n-i\ndefault\n")
	require.Contains(t, args, "-t\n2\n")
}

func TestFFMPEGLinuxFallsBackFromPulseToALSA(t *testing.T) {
	dir := installStub(t, "ffmpeg", `case "$*" in
  *"-f pulse"*) exit 1 ;;
esac
printf '%s\n' "$@" > "$ARGS_FILE"
`)
	argsFile := filepath.Join(dir, "args.txt")
	t.Setenv("ARGS_FILE", argsFile)

	err := (&ffmpegBackend{goos: "linux"}).Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   time.Second,
	})
	require.NoError(t, err)
	require.Contains(t, readArgs(t, argsFile), "-f\nalsa\n")
}

func TestFFMPEGMacUsesAVFoundation(t *testing.T) {
	dir, argsFile := installArgsStub(t, "ffmpeg")

	err := (&ffmpegBackend{goos: "darwin"}).Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   time.Second,
	})
	require.NoError(t, err)
	require.Contains(t, readArgs(t, argsFile), "-f\navfoundation\n-i\n:0\n")
}

func TestRecordReturnsContextCancellation(t *testing.T) {
	dir, readyFile := installRunningStub(t, "arecord", false)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- (&alsaBackend{}).Record(ctx, Config{
			OutputPath: filepath.Join(dir, "chunk.wav"),
			Duration:   10 * time.Second,
		})
	}()

	waitForPath(t, readyFile, 2*time.Second)
	cancel()

	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestRecordStopsRecorderWhenChunkElapses(t *testing.T) {
	dir, readyFile := installRunningStub(t, "pw-record", false)

	start := time.Now()
	err := (&pipewireBackend{}).Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   300 * time.Millisecond,
	})
	require.NoError(t, err)
	require.FileExists(t, readyFile)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestRecordKillsRecorderThatIgnoresInterrupt(t *testing.T) {
	dir, _ := installRunningStub(t, "pw-record", true)

	start := time.Now()
	err := (&pipewireBackend{}).Record(context.Background(), Config{
		OutputPath: filepath.Join(dir, "chunk.wav"),
		Duration:   200 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Less(t, time.Since(start), stopGrace+2*time.Second)
}
