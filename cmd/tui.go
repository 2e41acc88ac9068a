package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/desertthunder/lyricsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the terminal lyric viewer.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/lyricsync-watch.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	sess, err := r.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer sess.close()

	if !sess.spotify.Authenticated() {
		return fmt.Errorf("%w: run `lyricsync auth` first", shared.ErrNotAuthenticated)
	}

	model := ui.NewModel(ctx, sess.assembler, cmd.Duration("interval"))
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
