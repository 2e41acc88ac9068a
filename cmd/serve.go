package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/lyricsync/internal/server"
	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP service until the context is canceled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	addr := cmd.String("addr")
	if addr == "" {
		addr = sess.config.Server.Addr()
	}

	httpServer := server.NewHTTPServer(addr, r.router(sess))

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("serving", "addr", addr, "authenticated", sess.spotify.Authenticated())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// router builds the service routes for sess, persisting tokens obtained through /callback.
func (r *Runner) router(sess *session) *server.BasicRouter {
	oauth := server.NewOAuthHandler(sess.spotify, func(token *oauth2.Token) error {
		if sess.tokens == nil {
			return nil
		}
		return sess.tokens.SaveToken(services.SpotifyProvider, token)
	}, r.logger)

	return server.NewRouter(server.Options{
		Assembler: sess.assembler,
		OAuth:     oauth,
		Auth:      sess.spotify,
		Logger:    r.logger,
	})
}
