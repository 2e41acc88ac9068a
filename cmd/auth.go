package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/lyricsync/internal/server"
	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

type profileReader interface {
	UserProfile(ctx context.Context) (*services.SpotifyUser, error)
}

type tokenStamper interface {
	UpdatedAt(provider string) (time.Time, error)
}

// AuthLogin runs the authorization code flow on a temporary local server and stores the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	tokens, closeStore, err := r.tokenStore(config)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := r.spotify
	if svc == nil {
		if err := config.RequireSpotify(); err != nil {
			return err
		}
		spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		svc = spotify
	}

	token, err := r.doOAuth(ctx, config.Server.Addr(), svc)
	if err != nil {
		return err
	}

	if err := tokens.SaveToken(services.SpotifyProvider, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	if profiler, ok := svc.(profileReader); ok {
		if user, err := profiler.UserProfile(ctx); err == nil {
			r.writePlain("✓ Connected as %s\n", user.DisplayName)
		} else {
			r.logger.Warn("failed to fetch user profile", "error", err)
		}
	}
	r.writePlain("✓ Token saved to %s\n\n", config.Database.Path)
	r.writePlain("You can now use: lyricsync serve\n")
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, addr string, svc services.OAuthService) (*oauth2.Token, error) {
	oauthHandler := server.NewOAuthHandler(svc, nil, r.logger)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := server.NewHTTPServer(addr, router)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := oauthHandler.AuthURL()
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// AuthStatus reports whether a Spotify token is stored and when it was last written.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	tokens, closeStore, err := r.tokenStore(config)
	if err != nil {
		return err
	}
	defer closeStore()

	token, err := tokens.LoadToken(services.SpotifyProvider)
	switch {
	case errors.Is(err, shared.ErrTokenNotFound):
		if config.Credentials.Spotify.RefreshToken != "" {
			return r.writePlain("Authentication: refresh token from config/environment\n")
		}
		return r.writePlain("Authentication: ✗ Not authenticated (run `lyricsync auth`)\n")
	case err != nil:
		return err
	}

	r.writePlain("Authentication: ✓ Token stored\n")
	if stamped, ok := tokens.(tokenStamper); ok {
		if updated, err := stamped.UpdatedAt(services.SpotifyProvider); err == nil {
			r.writePlain("Last saved: %s\n", updated.Local().Format(time.RFC1123))
		}
	}
	if !token.Expiry.IsZero() {
		r.writePlain("Access token expires: %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	if token.RefreshToken == "" {
		r.writePlain("⚠ No refresh token stored; re-run `lyricsync auth` when the access token expires\n")
	}
	return nil
}

// AuthLogout deletes the stored Spotify token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	tokens, closeStore, err := r.tokenStore(config)
	if err != nil {
		return err
	}
	defer closeStore()

	deleter, ok := tokens.(interface{ DeleteToken(string) error })
	if !ok {
		return fmt.Errorf("%w: token store cannot delete tokens", shared.ErrNotImplemented)
	}
	if err := deleter.DeleteToken(services.SpotifyProvider); err != nil {
		return err
	}
	return r.writePlain("✓ Spotify token removed\n")
}
