package listen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fmueller/jabcount/internal/audio"
	"github.com/fmueller/jabcount/internal/observe"
	"github.com/fmueller/jabcount/internal/record"
	"github.com/fmueller/jabcount/internal/whisper"
	"go.uber.org/zap"
)

// maxTranscribeFailures is how many chunks in a row may fail to transcribe
// before the source gives up.
const maxTranscribeFailures = 3

// Recorder captures one chunk. record.Backend satisfies it.
type Recorder interface {
	Record(ctx context.Context, cfg record.Config) error
}

type MicOptions struct {
	Recorder   Recorder
	Engine     whisper.Engine
	ModelPath  string
	Language   string
	Chunk      time.Duration
	SampleRate int
	Input      string
	Format     string
	// Gate skips silent chunks when set.
	Gate    *audio.Gate
	Metrics *observe.Metrics
	Logger  *zap.Logger
}

type chunk struct {
	path string
	err  error
}

// MicSource records fixed-length chunks in the background and transcribes
// them on Next. Recording of the following chunk overlaps transcription of
// the current one.
type MicSource struct {
	opts   MicOptions
	dir    string
	chunks chan chunk
	cancel context.CancelFunc
	wg     sync.WaitGroup

	failures int
}

// NewMicSource starts recording. Close stops the recorder and removes any
// chunk files left behind.
func NewMicSource(ctx context.Context, opts MicOptions) (*MicSource, error) {
	if opts.Recorder == nil {
		return nil, errors.New("recorder is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("speech engine is required")
	}
	if opts.Chunk <= 0 {
		return nil, errors.New("chunk length must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dir, err := os.MkdirTemp("", "jabcount-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("create chunk directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	m := &MicSource{
		opts:   opts,
		dir:    dir,
		chunks: make(chan chunk, 1),
		cancel: cancel,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.produce(ctx)
	}()

	return m, nil
}

func (m *MicSource) produce(ctx context.Context) {
	defer close(m.chunks)

	for seq := 0; ; seq++ {
		path := filepath.Join(m.dir, fmt.Sprintf("chunk-%06d.wav", seq))
		err := m.opts.Recorder.Record(ctx, record.Config{
			OutputPath: path,
			Duration:   m.opts.Chunk,
			SampleRate: m.opts.SampleRate,
			Channels:   1,
			Input:      m.opts.Input,
			Format:     m.opts.Format,
			Logger:     m.opts.Logger,
		})
		if err != nil {
			removeChunk(path, m.opts.Logger)
			if ctx.Err() != nil {
				return
			}
			select {
			case m.chunks <- chunk{err: err}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case m.chunks <- chunk{path: path}:
		case <-ctx.Done():
			removeChunk(path, m.opts.Logger)
			return
		}
	}
}

// Next returns the transcript of the next chunk that contains sound.
func (m *MicSource) Next(ctx context.Context) (string, error) {
	for {
		var c chunk
		var ok bool
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case c, ok = <-m.chunks:
		}
		if !ok {
			return "", io.EOF
		}
		if c.err != nil {
			return "", fmt.Errorf("record chunk: %w", c.err)
		}

		text, err := m.transcribe(ctx, c.path)
		removeChunk(c.path, m.opts.Logger)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			m.failures++
			if m.failures >= maxTranscribeFailures {
				return "", fmt.Errorf("transcribe chunk: %w", err)
			}
			m.opts.Logger.Warn("failed to transcribe chunk", zap.Int("failures", m.failures), zap.Error(err))
			continue
		}
		m.failures = 0

		if text == "" {
			continue
		}
		return text, nil
	}
}

// transcribe returns "" for chunks the silence gate rejects.
func (m *MicSource) transcribe(ctx context.Context, path string) (string, error) {
	if m.opts.Gate != nil {
		level, err := audio.MeasureWAV(path)
		switch {
		case err != nil:
			m.opts.Logger.Debug("silence gate analysis failed; transcribing anyway", zap.Error(err))
		case m.opts.Gate.Silent(level):
			m.opts.Logger.Debug("chunk is silent; skipping",
				zap.Float64("rms_dbfs", level.RMSdBFS),
				zap.Float64("peak_dbfs", level.PeakdBFS),
			)
			return "", nil
		}
	}

	start := time.Now()
	text, err := m.opts.Engine.Transcribe(ctx, whisper.Request{
		AudioPath: path,
		ModelPath: m.opts.ModelPath,
		Language:  m.opts.Language,
	})
	if err != nil {
		return "", err
	}
	if m.opts.Metrics != nil {
		m.opts.Metrics.RecordTranscribe(ctx, time.Since(start).Seconds())
	}
	return text, nil
}

// Close stops recording and waits for the recorder to exit.
func (m *MicSource) Close() error {
	m.cancel()
	m.wg.Wait()
	for c := range m.chunks {
		if c.path != "" {
			removeChunk(c.path, m.opts.Logger)
		}
	}
	return os.RemoveAll(m.dir)
}

func removeChunk(path string, logger *zap.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove chunk", zap.String("path", path), zap.Error(err))
	}
}
