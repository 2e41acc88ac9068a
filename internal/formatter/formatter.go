// package formatter renders song states and lyrics as text, LRC, and CSV for the CLI
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/lyricsync/internal/lyrics"
	"github.com/desertthunder/lyricsync/internal/songstate"
)

// Format names accepted by [Render].
const (
	FormatText = "text"
	FormatLRC  = "lrc"
	FormatCSV  = "csv"
)

// FormatMillis renders a millisecond offset as m:ss.
func FormatMillis(ms uint) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// lrcTimestamp renders a millisecond offset as mm:ss.xx.
func lrcTimestamp(ms uint) string {
	return fmt.Sprintf("%02d:%02d.%02d", ms/60000, (ms/1000)%60, (ms%1000)/10)
}

// CurrentLineIndex returns the index of the last line starting at or before progress, or -1 before the first line.
//
// Lines are assumed sorted by start time, which is how upstream LRC files are written.
func CurrentLineIndex(lines []lyrics.Line, progress uint) int {
	return sort.Search(len(lines), func(i int) bool {
		return lines[i].StartTimeMS > progress
	}) - 1
}

// SongToText renders a song state as a short human-readable block.
func SongToText(state *songstate.SongState) string {
	var buf strings.Builder

	status := "Playing"
	if !state.IsPlaying {
		status = "Paused"
	}

	fmt.Fprintf(&buf, "%s - %s\n", state.Artist, state.Name)
	fmt.Fprintf(&buf, "%s [%s / %s]\n", status, FormatMillis(state.ProgressMS), FormatMillis(state.DurationMS))

	if state.AlbumArt != nil {
		fmt.Fprintf(&buf, "Album art: %s\n", *state.AlbumArt)
	}

	if len(state.Lyrics) > 0 {
		if i := CurrentLineIndex(state.Lyrics, state.ProgressMS); i >= 0 {
			fmt.Fprintf(&buf, "\n> %s\n", state.Lyrics[i].Text)
			if i+1 < len(state.Lyrics) {
				fmt.Fprintf(&buf, "  %s\n", state.Lyrics[i+1].Text)
			}
		}
	}

	return buf.String()
}

// LyricsToText renders lines as "[m:ss] words", one per line.
func LyricsToText(lines []lyrics.Line) string {
	var buf strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&buf, "[%s] %s\n", FormatMillis(line.StartTimeMS), line.Text)
	}
	return buf.String()
}

// ToLRC renders lines back into LRC, optionally preceded by artist and title tags.
func ToLRC(artist, title string, lines []lyrics.Line) []byte {
	var buf bytes.Buffer
	if artist != "" {
		fmt.Fprintf(&buf, "[ar:%s]\n", artist)
	}
	if title != "" {
		fmt.Fprintf(&buf, "[ti:%s]\n", title)
	}
	for _, line := range lines {
		fmt.Fprintf(&buf, "[%s]%s\n", lrcTimestamp(line.StartTimeMS), line.Text)
	}
	return buf.Bytes()
}

// ToCSV converts lines to CSV with columns: start_ms, timestamp, words
func ToCSV(lines []lyrics.Line) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"start_ms", "timestamp", "words"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, line := range lines {
		record := []string{strconv.FormatUint(uint64(line.StartTimeMS), 10), FormatMillis(line.StartTimeMS), line.Text}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Render formats lines in the named format.
func Render(format, artist, title string, lines []lyrics.Line) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return []byte(LyricsToText(lines)), nil
	case FormatLRC:
		return ToLRC(artist, title, lines), nil
	case FormatCSV:
		return ToCSV(lines)
	default:
		return nil, fmt.Errorf("unsupported format %q (want text, lrc or csv)", format)
	}
}

// WriteExport renders lines and writes them to path.
func WriteExport(path, format, artist, title string, lines []lyrics.Line) error {
	data, err := Render(format, artist, title, lines)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
