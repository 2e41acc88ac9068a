package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/desertthunder/lyricsync/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultMinInterval    = 500 * time.Millisecond
	DefaultRequestTimeout = 5 * time.Second
)

// Poller serves playback snapshots while issuing at most one upstream fetch per minimum interval.
//
// Between fetches the cached snapshot is interpolated on read. Callers arriving while a fetch is in flight
// wait for it and share its result.
type Poller struct {
	provider services.PlaybackProvider
	limiter  *rate.Limiter
	timeout  time.Duration
	now      func() time.Time
	logger   *log.Logger

	// sem serializes fetches and guards the fields below.
	sem     chan struct{}
	current *Snapshot
}

// Option configures a [Poller].
type Option func(*Poller)

// WithClock replaces the wall clock used for rate limiting and interpolation.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// WithLogger sets the poller's logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Poller) {
		p.logger = shared.WithLogger(logger, "component", "poller")
	}
}

// NewPoller creates a [Poller] over provider. Non-positive durations fall back to the defaults.
func NewPoller(provider services.PlaybackProvider, minInterval, timeout time.Duration, opts ...Option) (*Poller, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: playback provider is required", shared.ErrInvalidArgument)
	}
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	p := &Poller{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		timeout:  timeout,
		now:      time.Now,
		logger:   shared.WithLogger(shared.NewLogger(io.Discard), "component", "poller"),
		sem:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Snapshot returns the current playback state with progress interpolated to now.
//
// ctx only bounds the wait for a fetch already in flight.
//
// It returns [shared.ErrNothingPlaying] when the upstream reports nothing active, or when no snapshot has ever
// been fetched successfully. Upstream failures are absorbed by serving the last known snapshot.
func (p *Poller) Snapshot(ctx context.Context) (*Snapshot, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", shared.ErrNothingPlaying, ctx.Err())
	}
	defer func() { <-p.sem }()

	// every attempt spends the token, failed or not
	if p.limiter.AllowN(p.now(), 1) {
		p.refresh(ctx)
	}

	if p.current == nil {
		return nil, shared.ErrNothingPlaying
	}
	view := p.current.At(p.now())
	return &view, nil
}

// refresh performs one upstream fetch. Callers must hold sem.
//
// The fetch is shared by every waiting caller, so it is bounded only by the request timeout and not by the
// cancellation of the caller that happens to run it.
func (p *Poller) refresh(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	playing, err := p.provider.CurrentPlayback(fetchCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", shared.ErrUpstreamUnavailable, err)
		}
		p.logger.Warn("playback fetch failed, serving last known state", "error", err, "stale", p.current != nil)
		return
	}

	p.current = FromCurrentlyPlaying(playing, p.now())
	if p.current == nil {
		p.logger.Debug("nothing playing")
		return
	}
	p.logger.Debug("playback fetched", "track", p.current.TrackName, "artist", p.current.ArtistName,
		"progress_ms", p.current.ProgressMS, "playing", p.current.IsPlaying)
}
