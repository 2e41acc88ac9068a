package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/desertthunder/lyricsync/internal/shared"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used when [NewStore] is given a non-positive size.
const DefaultCacheSize = 100

// entry is an immutable cache value. A nil lines slice is a tombstone for a confirmed miss.
type entry struct {
	lines []Line
}

// Store caches parsed lyrics per track in a bounded LRU.
//
// Confirmed misses are cached as tombstones; upstream failures are never cached so the next call retries.
type Store struct {
	provider services.LyricsProvider
	cache    *lru.Cache[shared.TrackKey, entry]
	logger   *log.Logger
}

// NewStore creates a [Store] backed by provider holding at most size tracks.
func NewStore(provider services.LyricsProvider, size int, logger *log.Logger) (*Store, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: lyrics provider is required", shared.ErrInvalidArgument)
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	cache, err := lru.New[shared.TrackKey, entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lyrics cache: %w", err)
	}

	return &Store{
		provider: provider,
		cache:    cache,
		logger:   shared.WithLogger(logger, "component", "lyrics"),
	}, nil
}

// Get returns the lines for the track, or false when there are none or the upstream could not be reached.
func (s *Store) Get(ctx context.Context, artist, title string) ([]Line, bool) {
	lines, err := s.Lookup(ctx, artist, title)
	if err != nil {
		return nil, false
	}
	return lines, true
}

// Lookup returns the lines for the track.
//
// Errors are [shared.ErrNoLyrics] for a confirmed (cached) miss, [shared.ErrUpstreamUnavailable] for an
// uncached failure, or [shared.ErrInvalidInput] for an empty title.
func (s *Store) Lookup(ctx context.Context, artist, title string) ([]Line, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: empty title", shared.ErrInvalidInput)
	}

	key := shared.NormalizeTrackKey(title, artist)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("lyrics cache hit", "key", key, "tombstone", cached.lines == nil)
		if cached.lines == nil {
			return nil, shared.ErrNoLyrics
		}
		return cached.lines, nil
	}

	lines, err := s.fetch(ctx, artist, title)
	switch {
	case err == nil:
		s.cache.Add(key, entry{lines: lines})
		s.logger.Debug("lyrics cached", "key", key, "lines", len(lines))
		return lines, nil
	case errors.Is(err, shared.ErrNoLyrics):
		s.cache.Add(key, entry{})
		s.logger.Debug("lyrics tombstoned", "key", key)
		return nil, shared.ErrNoLyrics
	default:
		s.logger.Warn("lyrics lookup failed", "artist", artist, "title", title, "error", err)
		return nil, err
	}
}

// fetch tries a direct get first and falls back to search-then-get-by-id.
//
// ErrNoLyrics is only returned when every attempted strategy confirmed the miss.
func (s *Store) fetch(ctx context.Context, artist, title string) ([]Line, error) {
	var failure error

	record, err := s.provider.GetLyrics(ctx, artist, title)
	switch {
	case err == nil:
		if lines := Parse(record.SyncedLyrics); len(lines) > 0 {
			return lines, nil
		}
	case errors.Is(err, shared.ErrNoLyrics):
	default:
		failure = err
	}

	results, err := s.provider.SearchLyrics(ctx, artist, title)
	if err != nil && !errors.Is(err, shared.ErrNoLyrics) {
		return nil, err
	}
	if len(results) == 0 {
		return nil, missOr(failure)
	}

	record, err = s.provider.GetLyricsByID(ctx, results[0].ID)
	switch {
	case err == nil:
		if lines := Parse(record.SyncedLyrics); len(lines) > 0 {
			return lines, nil
		}
		return nil, missOr(failure)
	case errors.Is(err, shared.ErrNoLyrics):
		return nil, missOr(failure)
	default:
		return nil, err
	}
}

func missOr(failure error) error {
	if failure != nil {
		return failure
	}
	return shared.ErrNoLyrics
}

// Len returns the number of cached tracks, tombstones included.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Purge drops every cached entry.
func (s *Store) Purge() {
	s.cache.Purge()
}
