package main

import (
	"context"
	"errors"

	"github.com/desertthunder/lyricsync/internal/formatter"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/desertthunder/lyricsync/internal/songstate"
	"github.com/urfave/cli/v3"
)

// Now prints one song state, with lyrics when --lyrics is set.
func (r *Runner) Now(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	if !sess.spotify.Authenticated() {
		return errors.Join(shared.ErrNotAuthenticated, errors.New("run `lyricsync auth` first"))
	}

	var state *songstate.SongState
	if cmd.Bool("lyrics") {
		state, err = sess.assembler.Full(ctx)
	} else {
		state, err = sess.assembler.Quick(ctx)
	}

	if errors.Is(err, shared.ErrNothingPlaying) {
		if cmd.Bool("json") {
			return r.writeJSON(map[string]string{"error": "No song playing"}, false)
		}
		return r.writePlain("No song playing\n")
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, true)
	}
	return r.writePlain("%s", formatter.SongToText(state))
}
