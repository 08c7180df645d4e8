package record

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
)

type pipewireBackend struct{}

func (b *pipewireBackend) Name() string {
	return "pw-record"
}

func (b *pipewireBackend) Available() bool {
	return commandAvailable("pw-record")
}

func (b *pipewireBackend) Record(ctx context.Context, cfg Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return err
	}

	args := []string{"--rate", sampleRate(cfg), "--channels", channels(cfg), "--format", "s16"}
	if cfg.Input != "" {
		args = append(args, "--target", cfg.Input)
	}
	args = append(args, cfg.OutputPath)

	// pw-record has no duration flag; the timer ends the chunk
	cmd := exec.Command("pw-record", args...)
	cmd.Stderr = os.Stderr
	return runTimed(ctx, cmd, cfg.Duration, cfg.Logger)
}

func (b *pipewireBackend) ListDevices(ctx context.Context) (string, error) {
	if commandAvailable("pw-cli") {
		return commandOutput(ctx, "pw-cli", "ls", "Node")
	}
	if commandAvailable("pactl") {
		return commandOutput(ctx, "pactl", "list", "short", "sources")
	}
	return "", errors.New("no pipewire device listing command available")
}
