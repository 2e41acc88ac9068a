// Package playback caches the upstream "now playing" state.
//
// A [Poller] fetches from a [services.PlaybackProvider] at most once per minimum interval and interpolates
// progress locally in between, so clients may poll far more often than the upstream allows.
package playback
