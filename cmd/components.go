package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/lyricsync/internal/lyrics"
	"github.com/desertthunder/lyricsync/internal/playback"
	"github.com/desertthunder/lyricsync/internal/repositories"
	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/desertthunder/lyricsync/internal/songstate"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// tokenUser is implemented by services that can install a full token, expiry included.
type tokenUser interface {
	UseToken(*oauth2.Token)
}

// tokenRefresher is implemented by services that report refreshed tokens.
type tokenRefresher interface {
	SetTokenRefreshCallback(func(*oauth2.Token))
}

// loadConfig resolves the config once: file, then .env and environment overrides.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, err := shared.ResolveConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	shared.SetLogLevel(r.logger, shared.ParseLevel(config.Log.Level))

	r.config = config
	return config, nil
}

// tokenStore returns the injected store, or opens the configured database and migrates it.
func (r *Runner) tokenStore(config *shared.Config) (services.TokenStore, func(), error) {
	if r.tokens != nil {
		return r.tokens, func() {}, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open token database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repositories.NewTokenRepository(db), func() { db.Close() }, nil
}

// playbackService returns the Spotify client with any stored token installed and refreshes persisted.
//
// An unauthenticated service is returned without error so the server can still offer /login.
func (r *Runner) playbackService(ctx context.Context, config *shared.Config, tokens services.TokenStore) (services.OAuthService, error) {
	svc := r.spotify
	if svc == nil {
		if err := config.RequireSpotify(); err != nil {
			return nil, err
		}
		spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify service: %w", err)
		}
		svc = spotify
	}

	if refresher, ok := svc.(tokenRefresher); ok && tokens != nil {
		refresher.SetTokenRefreshCallback(func(token *oauth2.Token) {
			if err := tokens.SaveToken(services.SpotifyProvider, token); err != nil {
				r.logger.Warn("failed to persist refreshed token", "error", err)
				return
			}
			r.logger.Debug("persisted refreshed token", "expiry", token.Expiry)
		})
	}

	if svc.Authenticated() {
		return svc, nil
	}
	if err := r.restoreToken(ctx, config, svc, tokens); err != nil {
		r.logger.Warn("no usable Spotify token, run `lyricsync auth`", "error", err)
	}
	r.spotify = svc
	return svc, nil
}

func (r *Runner) restoreToken(ctx context.Context, config *shared.Config, svc services.OAuthService, tokens services.TokenStore) error {
	var stored *oauth2.Token
	if tokens != nil {
		token, err := tokens.LoadToken(services.SpotifyProvider)
		switch {
		case err == nil:
			stored = token
		case !errors.Is(err, shared.ErrTokenNotFound):
			return err
		}
	}

	switch {
	case stored != nil:
		if user, ok := svc.(tokenUser); ok {
			user.UseToken(stored)
			return nil
		}
		return svc.Authenticate(ctx, map[string]string{"access_token": stored.AccessToken, "refresh_token": stored.RefreshToken})
	case config.Credentials.Spotify.RefreshToken != "":
		return svc.Authenticate(ctx, map[string]string{"refresh_token": config.Credentials.Spotify.RefreshToken})
	default:
		return shared.ErrNotAuthenticated
	}
}

// lyricsStore wraps the lyrics provider in the process-wide LRU.
func (r *Runner) lyricsStore(config *shared.Config) (*lyrics.Store, error) {
	provider := r.lyrics
	if provider == nil {
		provider = services.NewLRCLibService(
			config.Credentials.LRCLib.BaseURL,
			r.httpClient,
			config.Lyrics.Timeout.Duration,
			config.Lyrics.RateLimit,
		)
	}
	return lyrics.NewStore(provider, config.Lyrics.CacheSize, r.logger)
}

// assembler wires poller and lyrics store into a [songstate.Assembler].
func (r *Runner) assembler(config *shared.Config, svc services.PlaybackProvider) (*songstate.Assembler, error) {
	poller, err := playback.NewPoller(
		svc,
		config.Playback.MinInterval.Duration,
		config.Playback.RequestTimeout.Duration,
		playback.WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}

	store, err := r.lyricsStore(config)
	if err != nil {
		return nil, err
	}
	return songstate.NewAssembler(poller, store, r.logger), nil
}

// session holds the components shared by commands that read playback.
type session struct {
	config    *shared.Config
	assembler *songstate.Assembler
	spotify   services.OAuthService
	tokens    services.TokenStore
	close     func()
}

// openSession resolves config, token store, Spotify and an assembler. Callers must call close.
func (r *Runner) openSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	tokens, closeStore, err := r.tokenStore(config)
	if err != nil {
		return nil, err
	}

	svc, err := r.playbackService(ctx, config, tokens)
	if err != nil {
		closeStore()
		return nil, err
	}

	assembler, err := r.assembler(config, svc)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &session{config: config, assembler: assembler, spotify: svc, tokens: tokens, close: closeStore}, nil
}
