package cli

import (
	"context"
	"fmt"

	"github.com/fmueller/jabcount/internal/audio"
	"github.com/fmueller/jabcount/internal/listen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newListenCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Count detections from the microphone (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runListen(cmd.Context())
		},
	}
}

func (a *appState) runListen(ctx context.Context) error {
	model, err := a.ensureModelAvailable(ctx)
	if err != nil {
		return err
	}

	engine, err := a.engineFn(a.log())
	if err != nil {
		return err
	}

	recorder, err := a.recorderFn(a.cfg.Backend)
	if err != nil {
		return fmt.Errorf("select recording backend: %w", err)
	}

	c, err := a.newCounter(ctx, "whisper.cpp "+model.Name)
	if err != nil {
		return err
	}

	var gate *audio.Gate
	if a.cfg.SilenceGate {
		gate = &audio.Gate{ThresholdDBFS: a.cfg.SilenceDBFS}
	}

	source, err := listen.NewMicSource(ctx, listen.MicOptions{
		Recorder:  recorder,
		Engine:    engine,
		ModelPath: model.Path,
		Language:  a.cfg.Language,
		Chunk:     a.cfg.Chunk,
		Input:     a.cfg.Input,
		Format:    a.cfg.InputFormat,
		Gate:      gate,
		Metrics:   c.metrics,
		Logger:    a.log(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			a.log().Warn("failed to clean up chunk directory", zap.Error(err))
		}
	}()

	a.log().Info("listening",
		zap.String("model", model.Name),
		zap.String("language", a.cfg.Language),
		zap.Duration("chunk", a.cfg.Chunk),
		zap.Duration("cooldown", a.cfg.Cooldown),
		zap.Int64("count", c.session.Count()),
	)
	return a.run(ctx, c, a.newLoop(c, source))
}
