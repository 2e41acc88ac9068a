package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenNotFound    = fmt.Errorf("stored token not found")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Upstream errors
	ErrUpstreamUnavailable = fmt.Errorf("upstream unavailable")
	ErrRateLimited         = fmt.Errorf("upstream rate limited")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")

	// Playback & lyrics results
	ErrNothingPlaying = fmt.Errorf("no song playing")
	ErrNoLyrics       = fmt.Errorf("no synced lyrics found")
	ErrMalformedLine  = fmt.Errorf("malformed lyric line")
	ErrAssembly       = fmt.Errorf("error assembling song state")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
