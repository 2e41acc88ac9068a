// package services defines the upstream providers lyricsync talks to over HTTP
//
// Spotify (now playing), lrclib (synced lyrics)
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// PlaybackProvider reports what the authenticated account is currently playing.
type PlaybackProvider interface {
	// CurrentPlayback returns the account's playback state.
	// A nil Item means nothing is playing; that is not an error.
	CurrentPlayback(ctx context.Context) (*CurrentlyPlaying, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [PlaybackProvider] for providers that authenticate with an authorization code flow.
type OAuthService interface {
	PlaybackProvider

	// Authenticate installs credentials: an "access_token", "refresh_token", or "auth_code".
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetAuthURL returns the consent page URL carrying state.
	GetAuthURL(state string) string

	// OAuthConfig exposes the underlying [oauth2.Config] for callback handlers.
	OAuthConfig() *oauth2.Config

	// Authenticated reports whether a token has been installed.
	Authenticated() bool

	// Token returns the installed token, or nil.
	Token() *oauth2.Token
}

// LyricsProvider looks up synchronized lyrics.
//
// Implementations return [shared.ErrNoLyrics] for a confirmed miss and wrap
// [shared.ErrUpstreamUnavailable] for everything that should be retried later.
type LyricsProvider interface {
	// GetLyrics fetches the record matching artist and title exactly.
	GetLyrics(ctx context.Context, artist, title string) (*LyricsRecord, error)

	// SearchLyrics returns candidate records ordered by the provider's relevance.
	SearchLyrics(ctx context.Context, artist, title string) ([]LyricsRecord, error)

	// GetLyricsByID fetches a record by the provider's id.
	GetLyricsByID(ctx context.Context, id int) (*LyricsRecord, error)
}

// TokenStore persists OAuth tokens between process restarts.
type TokenStore interface {
	SaveToken(provider string, token *oauth2.Token) error
	LoadToken(provider string) (*oauth2.Token, error)
}

// CurrentlyPlaying represents the playback state reported by the upstream.
type CurrentlyPlaying struct {
	IsPlaying  bool       `json:"is_playing"`
	ProgressMS *int       `json:"progress_ms"`
	Timestamp  int64      `json:"timestamp"`
	Item       *TrackItem `json:"item"`
}

// TrackItem is the track object of a [CurrentlyPlaying] response.
type TrackItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	DurationMS int             `json:"duration_ms"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
}

// PrimaryArtist returns the first credited artist's name.
func (t *TrackItem) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// AlbumArtURL returns the first (largest) album image, or nil when the album has none.
func (t *TrackItem) AlbumArtURL() *string {
	if len(t.Album.Images) == 0 || t.Album.Images[0].URL == "" {
		return nil
	}
	url := t.Album.Images[0].URL
	return &url
}

// LyricsRecord is a single lyrics entry as returned by lrclib.
type LyricsRecord struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasSynced reports whether the record carries time-coded lyrics.
func (r *LyricsRecord) HasSynced() bool {
	return r != nil && r.SyncedLyrics != ""
}
