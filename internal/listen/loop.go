// Package listen feeds transcripts from a source through the scanner into a
// detection session.
package listen

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/fmueller/jabcount/internal/match"
	"github.com/fmueller/jabcount/internal/observe"
	"github.com/fmueller/jabcount/internal/session"
	"go.uber.org/zap"
)

// BlankAudioToken is what the speech engine emits for a chunk without speech.
const BlankAudioToken = "[BLANK_AUDIO]"

// Source yields one finalized transcript per call. It returns io.EOF when no
// more transcripts will arrive.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// Batch is the outcome of processing one transcript.
type Batch struct {
	Transcript string
	Matches    []match.Match
	Result     session.Result
}

// Loop drives Source until it is exhausted or ctx is done.
type Loop struct {
	Source    Source
	Scanner   *match.Scanner
	Session   *session.Session
	Threshold float64
	Metrics   *observe.Metrics
	Logger    *zap.Logger

	// OnBatch, when set, is called after every non-blank transcript.
	OnBatch func(Batch)
}

// Run processes transcripts until the source reports io.EOF or ctx is
// cancelled; both end the loop without error. Any other source error is
// returned.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		transcript, err := l.Source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if IsBlank(transcript) {
			continue
		}

		batch := l.Process(ctx, transcript)
		if l.OnBatch != nil {
			l.OnBatch(batch)
		}
	}
}

// Process scans one transcript and records its matches.
func (l *Loop) Process(ctx context.Context, transcript string) Batch {
	logger := l.log()

	if l.Metrics != nil {
		l.Metrics.RecordTranscript(ctx)
	}

	matches := l.Scanner.Scan(transcript, l.Threshold)
	if len(matches) == 0 {
		logger.Debug("transcript", zap.String("text", transcript))
		for _, miss := range l.Scanner.NearMisses(transcript) {
			logger.Debug("near miss",
				zap.String("token", miss.Token),
				zap.String("fragment", miss.Fragment),
				zap.Bool("phonetic", miss.Phonetic),
				zap.Float64("similarity", miss.Similarity),
			)
		}
	}

	result := l.Session.Record(ctx, matches)

	switch result.Outcome {
	case session.OutcomeAccepted:
		for _, m := range matches {
			logger.Info("detection",
				zap.String("text", m.Text),
				zap.String("target", m.Target),
				zap.String("method", string(m.Method)),
				zap.Float64("confidence", m.Confidence),
			)
			if l.Metrics != nil {
				l.Metrics.RecordMatch(ctx, string(m.Method))
			}
		}
		if result.Added > 1 {
			logger.Info("multiple detections", zap.Int("added", result.Added), zap.Int64("total", result.Total))
		} else {
			logger.Info("count updated", zap.Int64("total", result.Total))
		}
		if l.Metrics != nil {
			l.Metrics.RecordBatch(ctx, result.Outcome.String())
		}
	case session.OutcomeCooldown:
		if l.Metrics != nil {
			l.Metrics.RecordBatch(ctx, result.Outcome.String())
		}
	}

	return Batch{Transcript: transcript, Matches: matches, Result: result}
}

func (l *Loop) log() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// IsBlank reports whether transcript carries no speech.
func IsBlank(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	return trimmed == "" || strings.EqualFold(trimmed, BlankAudioToken)
}
