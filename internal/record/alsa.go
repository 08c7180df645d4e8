package record

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
)

type alsaBackend struct{}

func (b *alsaBackend) Name() string {
	return "arecord"
}

func (b *alsaBackend) Available() bool {
	return commandAvailable("arecord")
}

func (b *alsaBackend) Record(ctx context.Context, cfg Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return err
	}

	args := []string{"-q", "-f", "S16_LE", "-r", sampleRate(cfg), "-c", channels(cfg), "-d", wholeSeconds(cfg.Duration)}
	if cfg.Input != "" {
		args = append(args, "-D", cfg.Input)
	}
	args = append(args, cfg.OutputPath)

	cmd := exec.Command("arecord", args...)
	cmd.Stderr = os.Stderr
	return runTimed(ctx, cmd, cfg.Duration, cfg.Logger)
}

func (b *alsaBackend) ListDevices(ctx context.Context) (string, error) {
	return commandOutput(ctx, "arecord", "-L")
}
