package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/lyricsync/internal/shared"
	"golang.org/x/oauth2"
)

func newTestSpotify(t *testing.T, baseURL string) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}, WithSpotifyBaseURL(baseURL))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:9999/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.RedirectURL != "http://localhost:9999/callback" {
				t.Errorf("expected redirect URI to be kept, got %s", srv.config.RedirectURL)
			}
			if srv.Authenticated() {
				t.Error("expected new service to be unauthenticated")
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "test_client_secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "test_client_id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv := newTestSpotify(t, "")
			if srv.config.RedirectURL != defaultRedirectURI {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Playback Scopes", func(t *testing.T) {
			srv := newTestSpotify(t, "")
			scopes := strings.Join(srv.OAuthConfig().Scopes, " ")
			for _, want := range []string{"user-read-currently-playing", "user-read-playback-state"} {
				if !strings.Contains(scopes, want) {
					t.Errorf("expected scope %s, got %s", want, scopes)
				}
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv := newTestSpotify(t, "")

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv := newTestSpotify(t, "")

		t.Run("WithAccessToken", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_access_token"})
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}
			if !srv.Authenticated() {
				t.Error("expected service to be authenticated")
			}
			if srv.Token().AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", srv.Token().AccessToken)
			}
		})

		t.Run("WithRefreshToken", func(t *testing.T) {
			other := newTestSpotify(t, "")
			err := other.Authenticate(context.Background(), map[string]string{"refresh_token": "refresh"})
			if err != nil {
				t.Errorf("expected no error with refresh token, got %v", err)
			}
			if other.Token().RefreshToken != "refresh" {
				t.Errorf("expected refresh token to be kept, got %s", other.Token().RefreshToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("OAuthService Interface", func(t *testing.T) {
		var _ OAuthService = newTestSpotify(t, "")
	})

	t.Run("CurrentPlayback", func(t *testing.T) {
		t.Run("Playing Track", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/me/player" {
					t.Errorf("expected path /me/player, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("expected bearer token, got %q", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"is_playing": true,
					"progress_ms": 1000,
					"timestamp": 1700000000000,
					"item": {
						"id": "t1",
						"name": "Foo",
						"duration_ms": 200000,
						"artists": [{"name": "Bar"}, {"name": "Baz"}],
						"album": {"images": [{"url": "https://img/large.jpg"}, {"url": "https://img/small.jpg"}]}
					}
				}`))
			}))
			defer server.Close()

			srv := newTestSpotify(t, server.URL)
			srv.UseToken(&oauth2.Token{AccessToken: "tok"})

			playing, err := srv.CurrentPlayback(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playing.Item == nil {
				t.Fatal("expected item")
			}
			if playing.Item.Name != "Foo" || playing.Item.PrimaryArtist() != "Bar" {
				t.Errorf("unexpected track %q by %q", playing.Item.Name, playing.Item.PrimaryArtist())
			}
			if playing.ProgressMS == nil || *playing.ProgressMS != 1000 {
				t.Errorf("expected progress 1000, got %v", playing.ProgressMS)
			}
			if art := playing.Item.AlbumArtURL(); art == nil || *art != "https://img/large.jpg" {
				t.Errorf("expected first album image, got %v", art)
			}
		})

		t.Run("No Content Means Nothing Playing", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			srv := newTestSpotify(t, server.URL)
			srv.UseToken(&oauth2.Token{AccessToken: "tok"})

			playing, err := srv.CurrentPlayback(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playing.Item != nil {
				t.Error("expected nil item for 204")
			}
		})

		t.Run("Null Item", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"is_playing": false, "progress_ms": null, "item": null}`))
			}))
			defer server.Close()

			srv := newTestSpotify(t, server.URL)
			srv.UseToken(&oauth2.Token{AccessToken: "tok"})

			playing, err := srv.CurrentPlayback(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playing.Item != nil || playing.ProgressMS != nil {
				t.Error("expected null item and progress")
			}
		})

		t.Run("Rate Limited", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer server.Close()

			srv := newTestSpotify(t, server.URL)
			srv.UseToken(&oauth2.Token{AccessToken: "tok"})

			_, err := srv.CurrentPlayback(context.Background())
			if !errors.Is(err, shared.ErrRateLimited) || !errors.Is(err, shared.ErrUpstreamUnavailable) {
				t.Errorf("expected rate limited upstream error, got %v", err)
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"item": [`))
			}))
			defer server.Close()

			srv := newTestSpotify(t, server.URL)
			srv.UseToken(&oauth2.Token{AccessToken: "tok"})

			_, err := srv.CurrentPlayback(context.Background())
			if !errors.Is(err, shared.ErrUpstreamUnavailable) {
				t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})

		t.Run("Not Authenticated", func(t *testing.T) {
			srv := newTestSpotify(t, "http://127.0.0.1:0")

			_, err := srv.CurrentPlayback(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("UserProfile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "u1", "display_name": "Listener", "product": "premium"}`))
		}))
		defer server.Close()

		srv := newTestSpotify(t, server.URL)
		srv.UseToken(&oauth2.Token{AccessToken: "tok"})

		user, err := srv.UserProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.DisplayName != "Listener" {
			t.Errorf("expected display name Listener, got %s", user.DisplayName)
		}
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		srv := newTestSpotify(t, "")

		t.Run("sets callback successfully", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {})
			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})

		t.Run("can set nil callback", func(t *testing.T) {
			srv.SetTokenRefreshCallback(nil)
			if srv.onTokenRefresh != nil {
				t.Error("expected callback to be nil")
			}
		})

		t.Run("refresh callback updates stored token", func(t *testing.T) {
			var got *oauth2.Token
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) { got = token })

			srv.refreshCallback(&oauth2.Token{AccessToken: "fresh"})

			if got == nil || got.AccessToken != "fresh" {
				t.Errorf("expected callback to receive fresh token, got %v", got)
			}
			if srv.Token().AccessToken != "fresh" {
				t.Errorf("expected stored token to be replaced, got %s", srv.Token().AccessToken)
			}
		})
	})

	t.Run("refreshableTokenSource", func(t *testing.T) {
		t.Run("calls callback on first token fetch", func(t *testing.T) {
			callbackCalled := false
			var capturedToken *oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callbackCalled = true
					capturedToken = token
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !callbackCalled {
				t.Error("expected callback to be called on first fetch")
			}
			if capturedToken == nil {
				t.Error("expected token to be captured")
			}
			if capturedToken.AccessToken != "test_token" {
				t.Errorf("expected captured token to be 'test_token', got %s", capturedToken.AccessToken)
			}
			if token.AccessToken != "test_token" {
				t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
			}
		})

		t.Run("calls callback when token changes", func(t *testing.T) {
			callCount := 0
			var capturedTokens []*oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "token1"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
					capturedTokens = append(capturedTokens, token)
				},
			}

			_, _ = source.Token()
			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}

			mockSource.token = &oauth2.Token{AccessToken: "token2"}
			token2, _ := source.Token()

			if callCount != 2 {
				t.Errorf("expected callback called twice, got %d", callCount)
			}
			if len(capturedTokens) != 2 {
				t.Errorf("expected 2 captured tokens, got %d", len(capturedTokens))
			}
			if token2.AccessToken != "token2" {
				t.Errorf("expected new token, got %s", token2.AccessToken)
			}
		})

		t.Run("doesn't call callback when token unchanged", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "same_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
				},
			}

			source.Token()
			source.Token()
			source.Token()

			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}
		})

		t.Run("handles nil callback gracefully", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: nil,
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error with nil callback, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token to be returned despite nil callback")
			}
		})

		t.Run("propagates source errors", func(t *testing.T) {
			mockSource := &mockTokenSource{
				err: errors.New("token source error"),
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					t.Error("callback should not be called on error")
				},
			}

			token, err := source.Token()
			if err == nil {
				t.Fatal("expected error from source")
			}
			if !strings.Contains(err.Error(), "token source error") {
				t.Errorf("expected source error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil token on error")
			}
		})

		t.Run("contains callback panic", func(t *testing.T) {
			calls := 0
			source := &refreshableTokenSource{
				source: &mockTokenSource{token: &oauth2.Token{AccessToken: "test_token"}},
				callback: func(token *oauth2.Token) {
					calls++
					panic("callback panic")
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token == nil || token.AccessToken != "test_token" {
				t.Errorf("expected token despite callback panic, got %+v", token)
			}
			if calls != 1 {
				t.Errorf("expected callback to run once, got %d", calls)
			}

			if _, err := source.Token(); err != nil {
				t.Errorf("expected repeated token without error, got %v", err)
			}
			if calls != 1 {
				t.Errorf("expected unchanged token not to notify again, got %d calls", calls)
			}
		})
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
