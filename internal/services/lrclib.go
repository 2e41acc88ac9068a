// lrclib.net implementation of [LyricsProvider]
//
// API reference: https://lrclib.net/docs
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/lyricsync/internal/shared"
	"golang.org/x/time/rate"
)

const (
	lrclibBaseURL   = "https://lrclib.net"
	lrclibUserAgent = "lyricsync (https://github.com/desertthunder/lyricsync)"

	defaultLyricsTimeout = 3 * time.Second
	defaultLyricsRate    = 5.0
)

// LRCLibService implements [LyricsProvider] against the lrclib.net API.
//
// Every request is bounded by timeout and gated by a token bucket so bursts of cache misses stay polite.
type LRCLibService struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
}

// NewLRCLibService creates a new lrclib client.
//
// Zero values fall back to the public endpoint, [http.DefaultClient], a 3s timeout and 5 requests per second.
func NewLRCLibService(baseURL string, client *http.Client, timeout time.Duration, perSecond float64) *LRCLibService {
	if baseURL == "" {
		baseURL = lrclibBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultLyricsTimeout
	}
	if perSecond <= 0 {
		perSecond = defaultLyricsRate
	}

	return &LRCLibService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// GetLyrics fetches the record whose artist and title match exactly (GET /api/get).
func (l *LRCLibService) GetLyrics(ctx context.Context, artist, title string) (*LyricsRecord, error) {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)

	var record LyricsRecord
	if err := l.get(ctx, "/api/get?"+params.Encode(), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SearchLyrics searches for records matching artist and title (GET /api/search).
func (l *LRCLibService) SearchLyrics(ctx context.Context, artist, title string) ([]LyricsRecord, error) {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)

	var records []LyricsRecord
	if err := l.get(ctx, "/api/search?"+params.Encode(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetLyricsByID fetches a record by its lrclib id (GET /api/get/{id}).
func (l *LRCLibService) GetLyricsByID(ctx context.Context, id int) (*LyricsRecord, error) {
	var record LyricsRecord
	if err := l.get(ctx, fmt.Sprintf("/api/get/%d", id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// get performs a rate-limited, time-bounded GET and decodes the JSON body into result.
//
// 404 maps to [shared.ErrNoLyrics]; every other failure wraps [shared.ErrUpstreamUnavailable].
func (l *LRCLibService) get(ctx context.Context, path string, result any) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: lrclib rate limit wait: %v", shared.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", lrclibUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w: lrclib request", shared.ErrUpstreamUnavailable, shared.ErrTimeout)
		}
		return fmt.Errorf("%w: lrclib request failed: %v", shared.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrNoLyrics
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: lrclib returned status %d: %s", shared.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode lrclib json: %v", shared.ErrUpstreamUnavailable, err)
	}
	return nil
}
