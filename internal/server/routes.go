package server

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsync/internal/shared"
)

// Options collects the handlers served by [NewRouter]. OAuth and Auth are optional.
type Options struct {
	Assembler StateAssembler
	OAuth     *OAuthHandler
	Auth      AuthStatus
	Logger    *log.Logger
}

// NewRouter builds the service router with request ids, logging, and panic recovery applied to every route.
func NewRouter(opts Options) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	logger = shared.WithLogger(logger, "component", "server")

	router := NewBasicRouter()
	router.Use(WithRequestID(), WithLogging(logger), WithRecover(logger))

	router.Handler(NewSongHandler(opts.Assembler, logger))
	router.Handler(NewHealthHandler(opts.Auth))
	if opts.OAuth != nil {
		router.Handler(opts.OAuth)
	}
	return router
}
