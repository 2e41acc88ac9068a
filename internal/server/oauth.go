package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsync/internal/services"
	"github.com/desertthunder/lyricsync/internal/shared"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long an issued state stays redeemable.
const stateTTL = 10 * time.Minute

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves /login and /callback for the authorization code flow.
//
// Every state issued by [OAuthHandler.Issue] is single-use and expires after ten minutes. Successful exchanges
// install the token on the service, pass it to the token callback, and publish it on [OAuthHandler.Result].
type OAuthHandler struct {
	auth    services.OAuthService
	onToken func(*oauth2.Token) error
	logger  *log.Logger
	now     func() time.Time

	mu      sync.Mutex
	states  map[string]time.Time
	results chan OAuthResult
}

// NewOAuthHandler creates an OAuth handler for auth. onToken may be nil.
func NewOAuthHandler(auth services.OAuthService, onToken func(*oauth2.Token) error, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{
		auth:    auth,
		onToken: onToken,
		logger:  logger,
		now:     time.Now,
		states:  make(map[string]time.Time),
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/login", "/callback"}
}

// Issue registers a fresh state token and returns it.
func (h *OAuthHandler) Issue() string {
	state := shared.GenerateID()

	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	for s, issued := range h.states {
		if now.Sub(issued) > stateTTL {
			delete(h.states, s)
		}
	}
	h.states[state] = now
	return state
}

// redeem consumes state, reporting whether it was issued and unexpired.
func (h *OAuthHandler) redeem(state string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	issued, ok := h.states[state]
	if !ok {
		return false
	}
	delete(h.states, state)
	return h.now().Sub(issued) <= stateTTL
}

// AuthURL issues a state and returns the provider's consent URL for it.
func (h *OAuthHandler) AuthURL() string {
	return h.auth.GetAuthURL(h.Issue())
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/login" {
		http.Redirect(w, r, h.AuthURL(), http.StatusFound)
		return
	}
	h.callback(w, r)
}

// callback validates the state parameter, exchanges the authorization code, and publishes the result.
func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if !h.redeem(query.Get("state")) {
		h.Send(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		WriteError(w, h.logger, http.StatusBadRequest, "Invalid state parameter")
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))
		h.Send(OAuthResult{err: err})
		WriteError(w, h.logger, http.StatusBadRequest, "Authorization failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := h.auth.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
		h.Send(OAuthResult{err: err})
		WriteError(w, h.logger, http.StatusBadGateway, "Token exchange failed")
		return
	}

	token := h.auth.Token()
	if h.onToken != nil {
		if err := h.onToken(token); err != nil && h.logger != nil {
			h.logger.Error("failed to persist token", "error", err)
		}
	}
	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

// Send publishes result unless an earlier result is still unread.
func (h *OAuthHandler) Send(result OAuthResult) {
	select {
	case h.results <- result:
	default:
	}
}

// Result returns the channel results are published on.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>lyricsync is connected</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
