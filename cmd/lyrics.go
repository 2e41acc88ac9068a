package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/lyricsync/internal/formatter"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Lyrics looks up synced lyrics for an artist and title.
func (r *Runner) Lyrics(ctx context.Context, cmd *cli.Command) error {
	artist := strings.TrimSpace(cmd.StringArg("artist"))
	title := strings.TrimSpace(cmd.StringArg("title"))
	if artist == "" || title == "" {
		return fmt.Errorf("%w: usage: lyricsync lyrics <artist> <title>", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := r.lyricsStore(config)
	if err != nil {
		return err
	}

	lines, err := store.Lookup(ctx, artist, title)
	switch {
	case errors.Is(err, shared.ErrNoLyrics):
		return r.writePlain("No synced lyrics found for %s - %s\n", artist, title)
	case err != nil:
		return fmt.Errorf("lyrics lookup failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lines, true)
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, cmd.String("format"), artist, title, lines); err != nil {
			return err
		}
		r.logger.Info("lyrics exported", "path", path, "lines", len(lines))
		return r.writePlain("✓ %d lines written to %s\n", len(lines), path)
	}

	data, err := formatter.Render(cmd.String("format"), artist, title, lines)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	_, err = r.output.Write(data)
	return err
}
