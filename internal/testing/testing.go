// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/desertthunder/lyricsync/internal/shared"
	"golang.org/x/oauth2"
)

// MockPlayback is a test double for [services.PlaybackProvider].
//
// Each call pops the next queued response; once the queue is drained the last response repeats.
type MockPlayback struct {
	mu        sync.Mutex
	responses []PlaybackResponse
	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32

	// Delay is applied to every call, honoring context cancellation.
	Delay time.Duration
}

// PlaybackResponse is one queued [MockPlayback] result.
type PlaybackResponse struct {
	Playing *services.CurrentlyPlaying
	Err     error
}

// NewMockPlayback queues responses in order.
func NewMockPlayback(responses ...PlaybackResponse) *MockPlayback {
	return &MockPlayback{responses: responses}
}

// Queue appends responses.
func (m *MockPlayback) Queue(responses ...PlaybackResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

func (m *MockPlayback) CurrentPlayback(ctx context.Context) (*services.CurrentlyPlaying, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		max := m.maxFlight.Load()
		if n <= max || m.maxFlight.CompareAndSwap(max, n) {
			break
		}
	}

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return &services.CurrentlyPlaying{}, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp.Playing, resp.Err
}

func (m *MockPlayback) Name() string { return "mock" }

// Calls returns how many times CurrentPlayback ran.
func (m *MockPlayback) Calls() int { return int(m.calls.Load()) }

// MaxConcurrent returns the highest number of overlapping CurrentPlayback calls observed.
func (m *MockPlayback) MaxConcurrent() int { return int(m.maxFlight.Load()) }

// Playing builds a [services.CurrentlyPlaying] for a single-artist track.
func Playing(id, name, artist string, progressMS, durationMS int, isPlaying bool) *services.CurrentlyPlaying {
	progress := progressMS
	return &services.CurrentlyPlaying{
		IsPlaying:  isPlaying,
		ProgressMS: &progress,
		Item: &services.TrackItem{
			ID:         id,
			Name:       name,
			DurationMS: durationMS,
			Artists:    []services.SpotifyArtist{{Name: artist}},
			Album: services.SpotifyAlbum{
				Images: []services.SpotifyImage{{URL: "https://i.scdn.co/image/" + id}},
			},
		},
	}
}

// MockOAuth is a test double for [services.OAuthService] backed by a [MockPlayback].
type MockOAuth struct {
	*MockPlayback

	mu    sync.Mutex
	token *oauth2.Token

	// AuthErr, when set, is returned by Authenticate.
	AuthErr error
	// Codes records every exchanged auth code.
	Codes []string
}

// NewMockOAuth creates an unauthenticated [MockOAuth].
func NewMockOAuth(playback *MockPlayback) *MockOAuth {
	if playback == nil {
		playback = NewMockPlayback()
	}
	return &MockOAuth{MockPlayback: playback}
}

func (m *MockOAuth) Authenticate(ctx context.Context, credentials map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AuthErr != nil {
		return m.AuthErr
	}
	switch {
	case credentials["auth_code"] != "":
		m.Codes = append(m.Codes, credentials["auth_code"])
		m.token = &oauth2.Token{AccessToken: "access-" + credentials["auth_code"], RefreshToken: "refresh", TokenType: "Bearer"}
	case credentials["access_token"] != "" || credentials["refresh_token"] != "":
		m.token = &oauth2.Token{AccessToken: credentials["access_token"], RefreshToken: credentials["refresh_token"]}
	default:
		return shared.ErrMissingCredentials
	}
	return nil
}

func (m *MockOAuth) GetAuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockOAuth) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{ClientID: "client"}
}

func (m *MockOAuth) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != nil
}

func (m *MockOAuth) Token() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// MockLyrics is a test double for [services.LyricsProvider] keyed by "artist|title".
type MockLyrics struct {
	mu sync.Mutex

	// Direct answers GetLyrics; missing keys return [shared.ErrNoLyrics].
	Direct map[string]*services.LyricsRecord
	// Search answers SearchLyrics; missing keys return no results.
	Search map[string][]services.LyricsRecord
	// ByID answers GetLyricsByID; missing ids return [shared.ErrNoLyrics].
	ByID map[int]*services.LyricsRecord
	// Err, when set, is returned by every call.
	Err error

	directCalls int
	searchCalls int
	byIDCalls   int
}

// NewMockLyrics creates an empty [MockLyrics].
func NewMockLyrics() *MockLyrics {
	return &MockLyrics{
		Direct: map[string]*services.LyricsRecord{},
		Search: map[string][]services.LyricsRecord{},
		ByID:   map[int]*services.LyricsRecord{},
	}
}

func (m *MockLyrics) GetLyrics(ctx context.Context, artist, title string) (*services.LyricsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if record, ok := m.Direct[artist+"|"+title]; ok {
		return record, nil
	}
	return nil, shared.ErrNoLyrics
}

func (m *MockLyrics) SearchLyrics(ctx context.Context, artist, title string) ([]services.LyricsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Search[artist+"|"+title], nil
}

func (m *MockLyrics) GetLyricsByID(ctx context.Context, id int) (*services.LyricsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byIDCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if record, ok := m.ByID[id]; ok {
		return record, nil
	}
	return nil, shared.ErrNoLyrics
}

// Calls returns the number of direct, search and by-id calls made so far.
func (m *MockLyrics) Calls() (direct, search, byID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directCalls, m.searchCalls, m.byIDCalls
}

// TotalCalls returns the sum of all upstream calls.
func (m *MockLyrics) TotalCalls() int {
	d, s, b := m.Calls()
	return d + s + b
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a [Clock] at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
