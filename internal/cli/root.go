package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fmueller/jabcount/internal/config"
	"github.com/fmueller/jabcount/internal/download"
	"github.com/fmueller/jabcount/internal/listen"
	"github.com/fmueller/jabcount/internal/logging"
	"github.com/fmueller/jabcount/internal/platform"
	"github.com/fmueller/jabcount/internal/record"
	"github.com/fmueller/jabcount/internal/version"
	"github.com/fmueller/jabcount/internal/whisper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type appState struct {
	cfg        config.Config
	configPath string
	noProgress bool

	logger *zap.Logger
	now    func() time.Time

	engineFn   func(logger *zap.Logger) (whisper.Engine, error)
	recorderFn func(backend string) (listen.Recorder, error)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newAppState() *appState {
	app := &appState{
		cfg: config.Default(),
		now: time.Now,
	}
	app.engineFn = func(logger *zap.Logger) (whisper.Engine, error) {
		return whisper.NewCLIEngine(logger)
	}
	app.recorderFn = func(backend string) (listen.Recorder, error) {
		return record.NewBackend(backend)
	}
	return app
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "jabcount",
		Short:         "Count how often someone says \"jabroni\" on a live microphone",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.applyConfigFile(cmd.Flags()); err != nil {
				return err
			}
			if err := config.Validate(app.cfg); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Verbose: app.cfg.Log.Verbose,
				JSON:    app.cfg.Log.JSON,
				Quiet:   app.cfg.Log.Quiet,
			})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.cfg.Language = sanitizeLanguage(app.cfg.Language)
			app.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runListen(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Path to a YAML config file; explicit flags take precedence")
	bindLoggingFlags(flags, app)
	bindModelFlags(flags, app)
	bindRecordingFlags(flags, app)
	bindCounterFlags(flags, app)

	cmd.AddCommand(newListenCmd(app))
	cmd.AddCommand(newFeedCmd(app))
	cmd.AddCommand(newScanCmd(app))
	cmd.AddCommand(newFileCmd(app))
	cmd.AddCommand(newDevicesCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(flags *pflag.FlagSet, app *appState) {
	flags.BoolVar(&app.cfg.Log.Verbose, "verbose", app.cfg.Log.Verbose, "Enable verbose logs, including near misses")
	flags.BoolVar(&app.cfg.Log.JSON, "json", app.cfg.Log.JSON, "Enable JSON logging")
	flags.BoolVar(&app.cfg.Log.Quiet, "quiet", app.cfg.Log.Quiet, "Only log warnings and errors")
	flags.BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindModelFlags(flags *pflag.FlagSet, app *appState) {
	flags.StringVar(&app.cfg.Model, "model", app.cfg.Model, "Model name ("+strings.Join(whisper.ModelNames(), "|")+") or model file path")
	flags.StringVar(&app.cfg.ModelDir, "model-dir", app.cfg.ModelDir, "Directory where models are stored")
	flags.StringVar(&app.cfg.Language, "language", app.cfg.Language, "Language code (auto|en|de|...) for transcription")
	flags.BoolVar(&app.cfg.AutoDownload, "auto-download", app.cfg.AutoDownload, "Automatically download missing models")
}

func bindRecordingFlags(flags *pflag.FlagSet, app *appState) {
	flags.StringVar(&app.cfg.Backend, "backend", app.cfg.Backend, "Recording backend: "+strings.Join(config.ValidBackends, "|"))
	flags.StringVar(&app.cfg.Input, "input", app.cfg.Input, "Input device (run \"jabcount devices\" to list); e.g. node-ID (pw-record), hw:1,0 (arecord), :1 (ffmpeg)")
	flags.StringVar(&app.cfg.InputFormat, "input-format", app.cfg.InputFormat, "Input format for ffmpeg backend (pulse|alsa)")
	flags.DurationVar(&app.cfg.Chunk, "chunk", app.cfg.Chunk, "Length of each recorded audio chunk")
	flags.BoolVar(&app.cfg.SilenceGate, "silence-gate", app.cfg.SilenceGate, "Skip transcription of near-silent chunks")
	flags.Float64Var(&app.cfg.SilenceDBFS, "silence-threshold-dbfs", app.cfg.SilenceDBFS, "Silence gate threshold in dBFS")
}

func bindCounterFlags(flags *pflag.FlagSet, app *appState) {
	flags.DurationVar(&app.cfg.Cooldown, "cooldown", app.cfg.Cooldown, "Minimum time between two counted detections")
	flags.Float64Var(&app.cfg.Threshold, "threshold", app.cfg.Threshold, "Minimum similarity for a fuzzy match (0-1)")
	flags.StringVar(&app.cfg.HTMLPath, "html", app.cfg.HTMLPath, "Counter page to write; empty disables it")
	flags.StringVar(&app.cfg.DataPath, "data", app.cfg.DataPath, "JSON file holding the count; empty disables it")
	flags.BoolVar(&app.cfg.Resume, "resume", app.cfg.Resume, "Continue from the count stored in the data file")
	flags.StringVar(&app.cfg.MetricsAddr, "metrics-addr", app.cfg.MetricsAddr, "Serve Prometheus metrics on this address, e.g. :9464")
}

// applyConfigFile loads --config and re-applies every flag the user set
// explicitly on top of it.
func (a *appState) applyConfigFile(flags *pflag.FlagSet) error {
	if strings.TrimSpace(a.configPath) == "" {
		return nil
	}

	fileCfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	changed := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	a.cfg = fileCfg
	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("re-apply flag --%s: %w", name, err)
		}
	}
	return nil
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.cfg.ModelDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return dir, nil
}

func (a *appState) ensureModelAvailable(ctx context.Context) (whisper.ResolvedModel, error) {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	resolved, err := whisper.ResolveModel(a.cfg.Model, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, err
	}
	if !resolved.NeedsDownload {
		return resolved, nil
	}

	if !a.cfg.AutoDownload {
		return whisper.ResolvedModel{}, fmt.Errorf("model %q is missing at %s; run `jabcount setup --model %s` or use --auto-download=true", resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := download.File(ctx, download.Options{
		URL:         resolved.URL,
		Destination: resolved.Path,
		SHA256:      resolved.SHA256,
		NoProgress:  a.noProgress,
		Logger:      a.log(),
	}); err != nil {
		return whisper.ResolvedModel{}, fmt.Errorf("download model %q: %w", resolved.Name, err)
	}

	resolved.NeedsDownload = false
	return resolved, nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}
