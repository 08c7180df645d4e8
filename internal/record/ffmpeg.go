package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ffmpegBackend captures through PulseAudio or ALSA on Linux and
// AVFoundation on macOS.
type ffmpegBackend struct {
	goos string
}

func (b *ffmpegBackend) Name() string {
	return "ffmpeg"
}

func (b *ffmpegBackend) Available() bool {
	return commandAvailable("ffmpeg")
}

func (b *ffmpegBackend) Record(ctx context.Context, cfg Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return err
	}

	var errs []error
	for _, src := range b.sources(cfg) {
		args := []string{
			"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
			"-f", src.format, "-i", src.input,
			"-t", wholeSeconds(cfg.Duration),
			"-ac", channels(cfg),
			"-ar", sampleRate(cfg),
			"-c:a", "pcm_s16le",
			cfg.OutputPath,
		}

		cmd := exec.Command("ffmpeg", args...)
		cmd.Stderr = os.Stderr

		err := runTimed(ctx, cmd, cfg.Duration, cfg.Logger)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		errs = append(errs, fmt.Errorf("ffmpeg (%s/%s): %w", src.format, src.input, err))
	}
	return errors.Join(errs...)
}

type source struct {
	format string
	input  string
}

// sources lists the capture inputs to try in order. An explicit format pins a
// single source.
func (b *ffmpegBackend) sources(cfg Config) []source {
	if b.goos == "darwin" {
		input := cfg.Input
		if input == "" {
			input = ":0"
		}
		return []source{{format: "avfoundation", input: input}}
	}

	input := cfg.Input
	if input == "" {
		input = "default"
	}
	if cfg.Format != "" {
		return []source{{format: cfg.Format, input: input}}
	}
	return []source{{format: "pulse", input: input}, {format: "alsa", input: input}}
}

func (b *ffmpegBackend) ListDevices(ctx context.Context) (string, error) {
	if b.goos == "darwin" {
		// ffmpeg exits non-zero after listing, so only the output matters
		out, _ := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "").CombinedOutput()
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return "", errors.New("ffmpeg returned no device output")
		}
		return trimmed, nil
	}

	var sections []string
	if commandAvailable("pactl") {
		if out, err := commandOutput(ctx, "pactl", "list", "short", "sources"); err == nil {
			sections = append(sections, "PulseAudio/PipeWire sources:\n"+out)
		} else {
			sections = append(sections, "PulseAudio/PipeWire sources: "+err.Error())
		}
	}
	if commandAvailable("arecord") {
		if out, err := commandOutput(ctx, "arecord", "-L"); err == nil {
			sections = append(sections, "ALSA devices:\n"+out)
		} else {
			sections = append(sections, "ALSA devices: "+err.Error())
		}
	}
	if len(sections) == 0 {
		return "", errors.New("no device listing command available")
	}
	return strings.Join(sections, "\n\n"), nil
}
