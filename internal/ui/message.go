package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lyricsync/internal/songstate"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgQuickFetched
	MsgFullFetched
)

// stateResult carries the outcome of one assembly.
type stateResult struct {
	state *songstate.SongState
	err   error
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(at time.Time) Msg {
	return Msg{kind: MsgTick, data: at}
}

// quickFetchedMsg is the constructor for [MsgQuickFetched]
func quickFetchedMsg(state *songstate.SongState, err error) Msg {
	return Msg{kind: MsgQuickFetched, data: stateResult{state, err}}
}

// fullFetchedMsg is the constructor for [MsgFullFetched]
func fullFetchedMsg(state *songstate.SongState, err error) Msg {
	return Msg{kind: MsgFullFetched, data: stateResult{state, err}}
}
