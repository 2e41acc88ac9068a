package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/desertthunder/lyricsync/internal/songstate"
)

const (
	msgNothingPlaying = "No song playing"
	msgFetchFailed    = "Error fetching song data"
)

// StateAssembler builds song states. [songstate.Assembler] implements it.
type StateAssembler interface {
	Full(ctx context.Context) (*songstate.SongState, error)
	Quick(ctx context.Context) (*songstate.SongState, error)
}

// SongHandler serves the current song state. Both routes always answer 200 with a JSON body.
type SongHandler struct {
	assembler StateAssembler
	logger    *log.Logger
}

// NewSongHandler creates a [SongHandler].
func NewSongHandler(assembler StateAssembler, logger *log.Logger) *SongHandler {
	return &SongHandler{assembler: assembler, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SongHandler) Routes() []string {
	return []string{"/current-song", "/current-song-quick"}
}

func (h *SongHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/current-song-quick":
		h.quick(w, r)
	default:
		h.full(w, r)
	}
}

// full reports every failure as "No song playing", which existing clients already handle.
func (h *SongHandler) full(w http.ResponseWriter, r *http.Request) {
	state, err := h.assembler.Full(r.Context())
	if err != nil {
		if !errors.Is(err, shared.ErrNothingPlaying) {
			h.logger.Error("failed to assemble song state", "error", err, "request_id", RequestID(r.Context()))
		}
		WriteError(w, h.logger, http.StatusOK, msgNothingPlaying)
		return
	}
	WriteJSON(w, h.logger, http.StatusOK, state)
}

func (h *SongHandler) quick(w http.ResponseWriter, r *http.Request) {
	state, err := h.assembler.Quick(r.Context())
	switch {
	case errors.Is(err, shared.ErrNothingPlaying):
		WriteError(w, h.logger, http.StatusOK, msgNothingPlaying)
	case err != nil:
		h.logger.Error("failed to assemble quick song state", "error", err, "request_id", RequestID(r.Context()))
		WriteError(w, h.logger, http.StatusOK, msgFetchFailed)
	default:
		WriteJSON(w, h.logger, http.StatusOK, state)
	}
}
