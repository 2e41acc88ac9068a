package server

import (
	"net/http"
)

// AuthStatus reports whether the playback provider holds a token.
type AuthStatus interface {
	Authenticated() bool
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	auth AuthStatus
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}

func NewHealthHandler(auth AuthStatus) *HealthHandler {
	return &HealthHandler{auth: auth}
}

func (h *HealthHandler) Routes() []string {
	return []string{"/healthz"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.auth != nil {
		resp.Authenticated = h.auth.Authenticated()
	}
	WriteJSON(w, nil, http.StatusOK, resp)
}
