// Package songstate joins the cached playback snapshot with cached lyrics into the state served to clients.
package songstate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsync/internal/lyrics"
	"github.com/desertthunder/lyricsync/internal/playback"
	"github.com/desertthunder/lyricsync/internal/shared"
)

// SnapshotSource yields the current playback snapshot. [playback.Poller] implements it.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*playback.Snapshot, error)
}

// LyricsSource yields lyrics for a track. [lyrics.Store] implements it.
type LyricsSource interface {
	Get(ctx context.Context, artist, title string) ([]lyrics.Line, bool)
}

// Assembler builds [SongState] values.
type Assembler struct {
	playback SnapshotSource
	lyrics   LyricsSource
	now      func() time.Time
	logger   *log.Logger
}

// NewAssembler creates an [Assembler]. A nil logger discards output.
func NewAssembler(playback SnapshotSource, lyrics LyricsSource, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Assembler{
		playback: playback,
		lyrics:   lyrics,
		now:      time.Now,
		logger:   shared.WithLogger(logger, "component", "assembler"),
	}
}

// Full returns the playback state with lyrics attached when available.
//
// Lyrics are looked up with the identity of the one snapshot captured by this call, so a track change
// mid-call cannot pair one track's lyrics with another track's state.
func (a *Assembler) Full(ctx context.Context) (*SongState, error) {
	return a.assemble(ctx, true)
}

// Quick returns the playback state without touching the lyrics store.
func (a *Assembler) Quick(ctx context.Context) (*SongState, error) {
	return a.assemble(ctx, false)
}

func (a *Assembler) assemble(ctx context.Context, withLyrics bool) (state *SongState, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("recovered panic while assembling song state", "panic", r)
			state, err = nil, fmt.Errorf("%w: %v", shared.ErrAssembly, r)
		}
	}()

	snap, err := a.playback.Snapshot(ctx)
	switch {
	case errors.Is(err, shared.ErrNothingPlaying):
		return nil, shared.ErrNothingPlaying
	case err != nil:
		return nil, fmt.Errorf("%w: %w", shared.ErrAssembly, err)
	case snap == nil:
		return nil, shared.ErrNothingPlaying
	}

	captured := *snap
	state = fromSnapshot(&captured, a.now().UnixMilli())

	if withLyrics && a.lyrics != nil {
		if lines, ok := a.lyrics.Get(ctx, captured.ArtistName, captured.TrackName); ok {
			state.Lyrics = lines
		}
	}
	return state, nil
}
