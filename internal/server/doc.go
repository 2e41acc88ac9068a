// Package server provides the HTTP boundary: routing, middleware, song state handlers, and OAuth handling.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [NewRouter] installs [WithRequestID], [WithLogging] and [WithRecover] on every route.
//
// # Song State
//
// [SongHandler] serves /current-song (with lyrics) and /current-song-quick (without). Both always answer
// 200; failures are reported in the body as {"error": "..."}:
//
//	/current-song        nothing playing or any failure  -> "No song playing"
//	/current-song-quick  nothing playing                 -> "No song playing"
//	/current-song-quick  assembly failure                -> "Error fetching song data"
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow. /login redirects to the consent page
// with a freshly issued state; /callback validates and consumes that state (CSRF protection), exchanges the
// code, and publishes the result on a channel.
//
// The same handler serves the temporary server started by the auth command and the long-running server.
package server
