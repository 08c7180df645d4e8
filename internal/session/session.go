// Package session turns scanner output into a running detection count.
//
// A Session accepts one batch of matches per transcript. A batch that
// arrives less than the cooldown after the last accepted one is dropped as a
// whole; otherwise every match in it is added to the total and each sink is
// notified once.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fmueller/jabcount/internal/match"
	"go.uber.org/zap"
)

// DefaultCooldown is the minimum gap between two accepted batches.
const DefaultCooldown = 2 * time.Second

// Update is what sinks receive after an accepted batch.
type Update struct {
	Count    int64
	Previous int64
	Added    int
	At       time.Time
}

// Sink receives count updates. Implementations must tolerate seeing the same
// count more than once.
type Sink interface {
	Publish(ctx context.Context, u Update) error
}

// Outcome classifies what Record did with a batch.
type Outcome int

const (
	// OutcomeEmpty means the batch had no matches.
	OutcomeEmpty Outcome = iota
	// OutcomeAccepted means the batch was counted.
	OutcomeAccepted
	// OutcomeCooldown means the batch arrived during cooldown and was dropped.
	OutcomeCooldown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeCooldown:
		return "cooldown"
	default:
		return "empty"
	}
}

// Result reports the effect of one Record call.
type Result struct {
	Outcome Outcome
	Added   int
	Total   int64
}

// Options configures a Session. Start is the count to resume from.
type Options struct {
	Cooldown time.Duration
	Start    int64
	Sinks    []Sink
	Now      func() time.Time
	Logger   *zap.Logger
}

// Session owns the detection count. Record must be called from a single
// goroutine at a time; Count and LastDetection may be read from anywhere.
type Session struct {
	mu       sync.Mutex
	last     time.Time
	total    atomic.Int64
	cooldown time.Duration
	sinks    []Sink
	now      func() time.Time
	logger   *zap.Logger
}

func New(opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cooldown < 0 {
		opts.Cooldown = 0
	}
	if opts.Start < 0 {
		opts.Start = 0
	}

	s := &Session{
		cooldown: opts.Cooldown,
		sinks:    opts.Sinks,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	s.total.Store(opts.Start)
	return s
}

// Count returns the current total.
func (s *Session) Count() int64 {
	return s.total.Load()
}

// LastDetection returns when the last batch was accepted, or the zero time.
func (s *Session) LastDetection() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Cooldown returns the configured cooldown.
func (s *Session) Cooldown() time.Duration {
	return s.cooldown
}

// Record applies the cooldown gate to matches and, when accepted, adds them
// to the total and notifies every sink. It never fails: sink errors are
// logged and the count is kept.
func (s *Session) Record(ctx context.Context, matches []match.Match) Result {
	if len(matches) == 0 {
		return Result{Outcome: OutcomeEmpty, Total: s.Count()}
	}

	s.mu.Lock()
	now := s.now()
	if s.coolingDown(now) {
		sinceLast := now.Sub(s.last)
		s.mu.Unlock()
		s.logger.Debug("cooldown active, dropping detection batch",
			zap.Int("matches", len(matches)),
			zap.Duration("since_last", sinceLast),
		)
		return Result{Outcome: OutcomeCooldown, Total: s.Count()}
	}

	previous := s.total.Load()
	total := s.total.Add(int64(len(matches)))
	s.last = now
	s.mu.Unlock()

	update := Update{Count: total, Previous: previous, Added: len(matches), At: now}
	s.Publish(ctx, update)

	return Result{Outcome: OutcomeAccepted, Added: len(matches), Total: total}
}

// Publish sends u to every sink. It is used by Record and to render the
// initial count at startup.
func (s *Session) Publish(ctx context.Context, u Update) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, u); err != nil {
			s.logger.Warn("failed to publish count", zap.Int64("count", u.Count), zap.Error(err))
		}
	}
}

// coolingDown reports whether now falls inside the cooldown window. A missing
// timestamp, or one after now, never blocks a batch.
func (s *Session) coolingDown(now time.Time) bool {
	if s.last.IsZero() || now.Before(s.last) {
		return false
	}
	return now.Sub(s.last) < s.cooldown
}
