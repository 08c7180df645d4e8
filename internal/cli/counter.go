package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fmueller/jabcount/internal/config"
	"github.com/fmueller/jabcount/internal/display"
	"github.com/fmueller/jabcount/internal/listen"
	"github.com/fmueller/jabcount/internal/match"
	"github.com/fmueller/jabcount/internal/observe"
	"github.com/fmueller/jabcount/internal/session"
	"github.com/fmueller/jabcount/internal/store"
	"github.com/fmueller/jabcount/internal/version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// counter is everything a running count needs apart from its source.
type counter struct {
	session  *session.Session
	metrics  *observe.Metrics
	provider *observe.Provider
}

// newCounter builds the session with its sinks, resumes the stored count when
// asked to and renders the starting count once.
func (a *appState) newCounter(ctx context.Context, engineLabel string) (*counter, error) {
	if err := config.ValidateSinks(a.cfg); err != nil {
		return nil, err
	}

	var sinks []session.Sink
	var file *store.File
	if a.cfg.HTMLPath != "" {
		sinks = append(sinks, &display.Page{Path: a.cfg.HTMLPath, Engine: engineLabel})
	}
	if a.cfg.DataPath != "" {
		file = &store.File{Path: a.cfg.DataPath, Engine: engineLabel, Model: a.cfg.Model, Now: a.now}
		sinks = append(sinks, file)
	}

	var start int64
	if a.cfg.Resume && file != nil {
		rec, err := file.Load()
		if err != nil {
			return nil, fmt.Errorf("resume count: %w", err)
		}
		start = rec.Count
		a.log().Info("resuming count", zap.Int64("count", start), zap.String("path", file.Path))
	}

	sess := session.New(session.Options{
		Cooldown: a.cfg.Cooldown,
		Start:    start,
		Sinks:    sinks,
		Now:      a.now,
		Logger:   a.log(),
	})
	sess.Publish(ctx, session.Update{Count: start, Previous: start, At: a.now()})

	provider := observe.Noop()
	if a.cfg.MetricsAddr != "" {
		p, err := observe.InitProvider(version.Resolve())
		if err != nil {
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
		provider = p
	}

	metrics, err := provider.Instrument(ctx, sess.Count)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return &counter{session: sess, metrics: metrics, provider: provider}, nil
}

func (a *appState) newLoop(c *counter, source listen.Source) *listen.Loop {
	return &listen.Loop{
		Source:    source,
		Scanner:   match.NewScanner(),
		Session:   c.session,
		Threshold: a.cfg.Threshold,
		Metrics:   c.metrics,
		Logger:    a.log(),
	}
}

// run drives loop alongside the metrics endpoint. The endpoint stops once the
// loop returns; a failing endpoint stops the loop.
func (a *appState) run(ctx context.Context, c *counter, loop *listen.Loop) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer a.shutdownProvider(c.provider)

	g, gctx := errgroup.WithContext(ctx)

	if c.provider.Handler != nil && a.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", c.provider.Handler)
		srv := &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("listen on metrics address %s: %w", a.cfg.MetricsAddr, err)
		}
		a.log().Info("serving metrics", zap.String("addr", ln.Addr().String()))

		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return loop.Run(gctx)
	})

	err := g.Wait()
	a.log().Info("counter stopped", zap.Int64("total", c.session.Count()))
	return err
}

func (a *appState) shutdownProvider(p *observe.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		a.log().Warn("failed to shut down metrics provider", zap.Error(err))
	}
}
