// Package record captures fixed-length microphone chunks through whichever
// command-line recorder the system provides.
package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNoBackendAvailable = errors.New("no recording backend available")

// stopGrace is how long a recorder gets to finalize its WAV header after
// SIGINT before it is killed.
const stopGrace = time.Second

// Config describes one chunk. Duration must be positive.
type Config struct {
	OutputPath string
	Duration   time.Duration
	SampleRate int
	Channels   int
	Input      string
	Format     string
	Logger     *zap.Logger
}

type Backend interface {
	Name() string
	Available() bool
	Record(ctx context.Context, cfg Config) error
	ListDevices(ctx context.Context) (string, error)
}

// DefaultBackends returns the backends for goos in preference order.
func DefaultBackends(goos string) []Backend {
	switch goos {
	case "linux":
		return []Backend{&pipewireBackend{}, &alsaBackend{}, &ffmpegBackend{goos: goos}}
	case "darwin":
		return []Backend{&ffmpegBackend{goos: goos}}
	default:
		return nil
	}
}

// NewBackend picks a backend for the running OS.
func NewBackend(preferred string) (Backend, error) {
	backends := DefaultBackends(runtime.GOOS)
	if len(backends) == 0 {
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return SelectBackend(backends, preferred)
}

// SelectBackend returns the backend named preferred, or with "auto" or an
// empty name the first available one.
func SelectBackend(backends []Backend, preferred string) (Backend, error) {
	if len(backends) == 0 {
		return nil, errors.New("no backends configured")
	}

	if preferred != "" && preferred != "auto" {
		for _, backend := range backends {
			if backend.Name() != preferred {
				continue
			}
			if !backend.Available() {
				return nil, fmt.Errorf("requested backend %q is not available", preferred)
			}
			return backend, nil
		}
		return nil, fmt.Errorf("unknown backend %q", preferred)
	}

	for _, backend := range backends {
		if backend.Available() {
			return backend, nil
		}
	}
	return nil, ErrNoBackendAvailable
}

func validate(cfg Config) error {
	if cfg.OutputPath == "" {
		return errors.New("output path is required")
	}
	if cfg.Duration <= 0 {
		return errors.New("chunk duration must be positive")
	}
	return nil
}

// runTimed starts cmd and stops it with SIGINT once duration elapses or ctx
// is done, killing it if it ignores the signal. Reaching the duration is
// success; cancellation returns ctx.Err().
func runTimed(ctx context.Context, cmd *exec.Cmd, duration time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		if err := stop(cmd, done); err != nil {
			logger.Debug("recorder exited after stop", zap.Error(err))
		}
		return nil
	case <-ctx.Done():
		_ = stop(cmd, done)
		return ctx.Err()
	}
}

func stop(cmd *exec.Cmd, done <-chan error) error {
	_ = cmd.Process.Signal(os.Interrupt)

	grace := time.NewTimer(stopGrace)
	defer grace.Stop()

	select {
	case err := <-done:
		return err
	case <-grace.C:
		_ = cmd.Process.Kill()
		return <-done
	}
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func commandOutput(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed != "" {
			return "", fmt.Errorf("%s %s failed: %w (%s)", name, strings.Join(args, " "), err, trimmed)
		}
		return "", fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return trimmed, nil
}

func sampleRate(cfg Config) string {
	if cfg.SampleRate <= 0 {
		return "16000"
	}
	return strconv.Itoa(cfg.SampleRate)
}

func channels(cfg Config) string {
	if cfg.Channels <= 0 {
		return "1"
	}
	return strconv.Itoa(cfg.Channels)
}

// wholeSeconds rounds d up so a recorder-side limit never ends the chunk
// before our own timer does.
func wholeSeconds(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
