// package repositories provides persistence layer implementations for OAuth tokens.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/desertthunder/lyricsync/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository implements [services.TokenStore] over the oauth_tokens table.
type TokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ services.TokenStore = (*TokenRepository)(nil)

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

// SaveToken inserts or replaces the token for provider.
//
// An empty refresh token keeps the stored one, since refresh responses may omit it.
func (r *TokenRepository) SaveToken(provider string, token *oauth2.Token) error {
	if strings.TrimSpace(provider) == "" {
		return fmt.Errorf("%w: provider", shared.ErrMissingArgument)
	}
	if token == nil || token.AccessToken == "" && token.RefreshToken == "" {
		return fmt.Errorf("%w: token has no access or refresh token", shared.ErrInvalidArgument)
	}

	query := `
		INSERT INTO oauth_tokens (provider, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN oauth_tokens.refresh_token ELSE excluded.refresh_token END,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`

	var expiry sql.NullTime
	if !token.Expiry.IsZero() {
		expiry = sql.NullTime{Time: token.Expiry.UTC(), Valid: true}
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	now := r.now().UTC()
	_, err := r.db.Exec(query, provider, token.AccessToken, token.RefreshToken, tokenType, expiry, now, now)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken returns the stored token for provider or [shared.ErrTokenNotFound].
func (r *TokenRepository) LoadToken(provider string) (*oauth2.Token, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry
		FROM oauth_tokens
		WHERE provider = ?
	`

	var (
		token  oauth2.Token
		expiry sql.NullTime
	)

	err := r.db.QueryRow(query, provider).Scan(&token.AccessToken, &token.RefreshToken, &token.TokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTokenNotFound, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	return &token, nil
}

// DeleteToken removes the stored token for provider. Deleting a missing token is not an error.
func (r *TokenRepository) DeleteToken(provider string) error {
	if _, err := r.db.Exec(`DELETE FROM oauth_tokens WHERE provider = ?`, provider); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// UpdatedAt reports when the token for provider was last written.
func (r *TokenRepository) UpdatedAt(provider string) (time.Time, error) {
	var updated time.Time
	err := r.db.QueryRow(`SELECT updated_at FROM oauth_tokens WHERE provider = ?`, provider).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", shared.ErrTokenNotFound, provider)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query token: %w", err)
	}
	return updated, nil
}
