package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lyricsync/internal/lyrics"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/desertthunder/lyricsync/internal/songstate"
)

type fakeSource struct {
	full       *songstate.SongState
	quick      *songstate.SongState
	err        error
	fullCalls  int
	quickCalls int
}

func (f *fakeSource) Full(ctx context.Context) (*songstate.SongState, error) {
	f.fullCalls++
	return f.full, f.err
}

func (f *fakeSource) Quick(ctx context.Context) (*songstate.SongState, error) {
	f.quickCalls++
	return f.quick, f.err
}

func song(id, name string, progress uint, lines []lyrics.Line) *songstate.SongState {
	return &songstate.SongState{
		TrackID:    id,
		Name:       name,
		Artist:     "Bar",
		ProgressMS: progress,
		IsPlaying:  true,
		DurationMS: 200000,
		Lyrics:     lines,
	}
}

var testLines = []lyrics.Line{
	{StartTimeMS: 1000, Text: "first line"},
	{StartTimeMS: 5000, Text: "second line"},
	{StartTimeMS: 9000, Text: "third line"},
}

func TestModel(t *testing.T) {
	ctx := context.Background()

	t.Run("Full State Renders Current Line", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		m.Update(fullFetchedMsg(song("1", "Foo", 5500, testLines), nil))

		view := m.View()
		if !strings.Contains(view, "Foo") || !strings.Contains(view, "› second line") {
			t.Errorf("expected highlighted second line, got:\n%s", view)
		}
		if !strings.Contains(view, "0:05 / 3:20") {
			t.Errorf("expected progress times, got:\n%s", view)
		}
	})

	t.Run("Quick Update Advances Progress", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		m.Update(fullFetchedMsg(song("1", "Foo", 1500, testLines), nil))

		_, cmd := m.Update(quickFetchedMsg(song("1", "Foo", 9500, nil), nil))
		if cmd != nil {
			t.Error("expected no refetch for the same track")
		}
		if !strings.Contains(m.View(), "› third line") {
			t.Errorf("expected third line highlighted, got:\n%s", m.View())
		}
	})

	t.Run("Track Change Fetches Full", func(t *testing.T) {
		source := &fakeSource{full: song("2", "Baz", 0, testLines)}
		m := NewModel(ctx, source, 0)
		m.Update(fullFetchedMsg(song("1", "Foo", 1500, testLines), nil))

		_, cmd := m.Update(quickFetchedMsg(song("2", "Baz", 0, nil), nil))
		if cmd == nil {
			t.Fatal("expected a full fetch for the new track")
		}
		msg := cmd()
		if source.fullCalls != 1 {
			t.Errorf("expected one full call, got %d", source.fullCalls)
		}
		m.Update(msg)
		if m.track != trackKey(source.full) {
			t.Errorf("expected track key to follow new track, got %v", m.track)
		}
	})

	t.Run("Nothing Playing", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		m.Update(fullFetchedMsg(song("1", "Foo", 1500, testLines), nil))
		m.Update(quickFetchedMsg(nil, shared.ErrNothingPlaying))

		view := m.View()
		if !strings.Contains(view, "No song playing") {
			t.Errorf("expected empty state, got:\n%s", view)
		}
		if m.lines != nil {
			t.Error("expected lyrics to be cleared")
		}
	})

	t.Run("Other Errors Keep Last State", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		m.Update(fullFetchedMsg(song("1", "Foo", 1500, testLines), nil))
		m.Update(quickFetchedMsg(nil, errors.New("boom")))

		view := m.View()
		if !strings.Contains(view, "Foo") || !strings.Contains(view, "Stale") {
			t.Errorf("expected stale state with warning, got:\n%s", view)
		}
	})

	t.Run("No Lyrics", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		m.Update(fullFetchedMsg(song("1", "Foo", 1500, nil), nil))
		if !strings.Contains(m.View(), "No synced lyrics") {
			t.Errorf("expected no lyrics notice, got:\n%s", m.View())
		}
	})

	t.Run("Scrolling Stops Following", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		m.Update(fullFetchedMsg(song("1", "Foo", 1500, testLines), nil))

		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
		if m.follow || m.offset != 1 {
			t.Errorf("expected manual scroll to offset 1, got follow=%v offset=%d", m.follow, m.offset)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
		if !m.follow || m.offset != 0 {
			t.Errorf("expected follow to resume, got follow=%v offset=%d", m.follow, m.offset)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("Window Size", func(t *testing.T) {
		m := NewModel(ctx, &fakeSource{}, 0)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		if m.width != 80 || m.progress.Width != 64 {
			t.Errorf("unexpected sizes width=%d progress=%d", m.width, m.progress.Width)
		}
	})
}
