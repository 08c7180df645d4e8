package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/jabcount/internal/audio"
	"github.com/fmueller/jabcount/internal/listen"
	"github.com/fmueller/jabcount/internal/match"
	"github.com/fmueller/jabcount/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFileCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "file <audio-file>",
		Short: "Transcribe an audio file and print its matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioPath := filepath.Clean(args[0])
			if _, err := os.Stat(audioPath); err != nil {
				return fmt.Errorf("audio file not found: %w", err)
			}

			if app.cfg.SilenceGate && strings.EqualFold(filepath.Ext(audioPath), ".wav") {
				level, err := audio.MeasureWAV(audioPath)
				if err != nil {
					app.log().Warn("silence gate analysis failed; continuing transcription", zap.Error(err), zap.String("audio", audioPath))
				} else if (audio.Gate{ThresholdDBFS: app.cfg.SilenceDBFS}).Silent(level) {
					app.log().Warn("audio considered silent; nothing to scan",
						zap.Float64("rms_dbfs", level.RMSdBFS),
						zap.Float64("peak_dbfs", level.PeakdBFS),
					)
					printMatches(cmd.OutOrStdout(), listen.BlankAudioToken, nil)
					return nil
				}
			}

			model, err := app.ensureModelAvailable(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := app.engineFn(app.log())
			if err != nil {
				return err
			}

			app.log().Info("transcribing...", zap.String("audio", audioPath), zap.String("model", model.Path), zap.String("language", app.cfg.Language))
			stopSpinner := startSpinner(app.progressEnabled(), "Transcribing")
			started := time.Now()

			transcript, err := engine.Transcribe(cmd.Context(), whisper.Request{
				AudioPath: audioPath,
				ModelPath: model.Path,
				Language:  app.cfg.Language,
			})
			stopSpinner()
			if err != nil {
				return err
			}
			app.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)))

			if listen.IsBlank(transcript) {
				app.log().Warn("no speech detected")
			}
			printMatches(cmd.OutOrStdout(), transcript, match.NewScanner().Scan(transcript, app.cfg.Threshold))
			return nil
		},
	}
}
