package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lyricsync/internal/formatter"
	"github.com/desertthunder/lyricsync/internal/lyrics"
	"github.com/desertthunder/lyricsync/internal/shared"
	"github.com/desertthunder/lyricsync/internal/songstate"
)

// DefaultInterval is how often the viewer polls for the quick state.
const DefaultInterval = 250 * time.Millisecond

const defaultVisibleLines = 9

// StateSource assembles song states. [songstate.Assembler] implements it.
type StateSource interface {
	Full(ctx context.Context) (*songstate.SongState, error)
	Quick(ctx context.Context) (*songstate.SongState, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	source   StateSource
	interval time.Duration

	state    *songstate.SongState
	lines    []lyrics.Line
	track    loadedTrack
	loading  bool
	follow   bool
	offset   int
	err      error
	width    int
	height   int
	progress progress.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model polling source every interval.
func NewModel(ctx context.Context, source StateSource, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Model{
		ctx:      ctx,
		source:   source,
		interval: interval,
		follow:   true,
		progress: progress.New(progress.WithSolidFill("#1DB954"), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init fetches the full state (with lyrics) and starts the poll loop.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.fetchFull(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-16, 10)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgTick:
			return m, tea.Batch(m.fetchQuick(), m.tick())
		case MsgQuickFetched:
			return m, m.applyQuick(msg.data.(stateResult))
		case MsgFullFetched:
			m.applyFull(msg.data.(stateResult))
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.follow):
		m.follow = true
		m.offset = 0
	case key.Matches(msg, m.keys.up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.down):
		m.scroll(1)
	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		return m, m.fetchFull()
	}
	return m, nil
}

func (m *Model) scroll(delta int) {
	if len(m.lines) == 0 {
		return
	}
	if m.follow {
		m.follow = false
		m.offset = max(m.currentIndex(), 0)
	}
	m.offset = min(max(m.offset+delta, 0), len(m.lines)-1)
}

// applyQuick updates progress, and requests lyrics when the track changed.
func (m *Model) applyQuick(result stateResult) tea.Cmd {
	if result.err != nil {
		m.setError(result.err)
		return nil
	}

	m.err = nil
	m.state = result.state
	if trackKey(result.state) != m.track && !m.loading {
		m.loading = true
		return m.fetchFull()
	}
	return nil
}

func (m *Model) applyFull(result stateResult) {
	m.loading = false
	if result.err != nil {
		m.setError(result.err)
		return
	}

	m.err = nil
	m.state = result.state
	m.lines = result.state.Lyrics
	m.track = trackKey(result.state)
	m.follow = true
	m.offset = 0
}

func (m *Model) setError(err error) {
	m.err = err
	if errors.Is(err, shared.ErrNothingPlaying) {
		m.state = nil
		m.lines = nil
		m.track = loadedTrack{}
	}
}

// loadedTrack identifies the song whose lyrics are loaded.
type loadedTrack struct {
	id  string
	key shared.TrackKey
}

func trackKey(state *songstate.SongState) loadedTrack {
	if state == nil {
		return loadedTrack{}
	}
	return loadedTrack{id: state.TrackID, key: shared.NormalizeTrackKey(state.Name, state.Artist)}
}

func (m *Model) currentIndex() int {
	if m.state == nil {
		return -1
	}
	return formatter.CurrentLineIndex(m.lines, m.state.ProgressMS)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) fetchQuick() tea.Cmd {
	return func() tea.Msg {
		state, err := m.source.Quick(m.ctx)
		return quickFetchedMsg(state, err)
	}
}

func (m *Model) fetchFull() tea.Cmd {
	return func() tea.Msg {
		state, err := m.source.Full(m.ctx)
		return fullFetchedMsg(state, err)
	}
}

// View renders the TUI based on the current state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("lyricsync"))
	b.WriteString("\n")

	switch {
	case m.state == nil && errors.Is(m.err, shared.ErrNothingPlaying):
		b.WriteString(styles.warn.Render("No song playing"))
		b.WriteString("\n")
	case m.state == nil && m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.state == nil:
		b.WriteString(styles.dim.Render("Waiting for playback..."))
		b.WriteString("\n")
	default:
		m.viewSong(&b)
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) viewSong(b *strings.Builder) {
	s := m.state
	fmt.Fprintf(b, "%s\n", styles.current.Render(s.Name))
	fmt.Fprintf(b, "%s\n\n", s.Artist)

	ratio := 0.0
	if s.DurationMS > 0 {
		ratio = float64(s.ProgressMS) / float64(s.DurationMS)
	}
	status := "▶"
	if !s.IsPlaying {
		status = "⏸"
	}
	fmt.Fprintf(b, "%s %s %s / %s\n\n", status, m.progress.ViewAs(ratio),
		formatter.FormatMillis(s.ProgressMS), formatter.FormatMillis(s.DurationMS))

	if m.err != nil {
		fmt.Fprintf(b, "%s\n", styles.warn.Render(fmt.Sprintf("Stale: %v", m.err)))
	}

	if len(m.lines) == 0 {
		if m.loading {
			b.WriteString(styles.dim.Render("Loading lyrics..."))
		} else {
			b.WriteString(styles.dim.Render("No synced lyrics for this track"))
		}
		b.WriteString("\n")
		return
	}

	current := m.currentIndex()
	center := current
	if !m.follow {
		center = m.offset
	}

	visible := defaultVisibleLines
	if m.height > 0 {
		visible = max(m.height-12, 3)
	}
	start := max(center-visible/2, 0)
	end := min(start+visible, len(m.lines))

	for i := start; i < end; i++ {
		text := m.lines[i].Text
		if i == current {
			fmt.Fprintf(b, "%s\n", styles.current.Render("› "+text))
		} else {
			fmt.Fprintf(b, "%s\n", styles.dim.Render("  "+text))
		}
	}
}
