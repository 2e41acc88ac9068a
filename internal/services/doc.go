// Package services implements the upstream providers lyricsync depends on.
//
// # Playback
//
// [PlaybackProvider] reports the account's current playback. [SpotifyService] implements it (and [OAuthService])
// over the Spotify Web API using [oauth2] for authentication with automatic token refresh.
//
// The [oauth2.Client] refreshes expired tokens using the refresh token; every new token is passed to the callback
// registered with SpotifyService.SetTokenRefreshCallback so it can be persisted.
//
// Spotify answers 204 No Content when nothing is active. That maps to a [CurrentlyPlaying] with a nil Item,
// which is a result, not an error.
//
// # Lyrics
//
// [LyricsProvider] looks up time-coded lyrics. [LRCLibService] implements it over lrclib.net with two lookup
// styles: direct get by artist and title, and search followed by get by id. Each request carries its own timeout
// and waits on a [rate.Limiter].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called, or the upstream rejected the token
//   - [shared.ErrUpstreamUnavailable] : network failure, timeout, non-success status, or undecodable body
//   - [shared.ErrRateLimited] : upstream answered 429 (also wraps ErrUpstreamUnavailable)
//   - [shared.ErrNoLyrics] : lrclib confirmed it has no record (404)
//
// Callers treat ErrUpstreamUnavailable as transient and ErrNoLyrics as a confirmed miss.
package services
