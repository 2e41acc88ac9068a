// Package ui implements the terminal lyric viewer using bubbletea's Elm architecture.
//
// The (view) [Model] polls the quick song state on a fixed interval and asks for the full state, lyrics
// included, only when the track changes. The active lyric line is the last one starting at or before the
// interpolated progress, and is highlighted in the middle of the visible window.
//
// Keyboard navigation uses vim-style bindings (j/k to scroll, f to follow playback again, r to reload, q to quit)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
