package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/lyricsync/internal/lyrics"
	"github.com/desertthunder/lyricsync/internal/songstate"
)

var sampleLines = []lyrics.Line{
	{StartTimeMS: 1000, Text: "first"},
	{StartTimeMS: 62500, Text: "second, with comma"},
	{StartTimeMS: 125010, Text: "third"},
}

func TestFormatMillis(t *testing.T) {
	tests := []struct {
		ms   uint
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{62500, "1:02"},
		{600000, "10:00"},
	}
	for _, tt := range tests {
		if got := FormatMillis(tt.ms); got != tt.want {
			t.Errorf("FormatMillis(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestCurrentLineIndex(t *testing.T) {
	tests := []struct {
		name     string
		progress uint
		want     int
	}{
		{"Before First Line", 500, -1},
		{"Exactly On Line", 1000, 0},
		{"Between Lines", 30000, 0},
		{"Second Line", 62500, 1},
		{"After Last Line", 999999, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentLineIndex(sampleLines, tt.progress); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}

	t.Run("No Lines", func(t *testing.T) {
		if got := CurrentLineIndex(nil, 1000); got != -1 {
			t.Errorf("expected -1, got %d", got)
		}
	})
}

func TestSongToText(t *testing.T) {
	art := "https://i.scdn.co/image/abc"
	state := &songstate.SongState{
		Name:       "Foo",
		Artist:     "Bar",
		ProgressMS: 63000,
		IsPlaying:  true,
		DurationMS: 200000,
		AlbumArt:   &art,
		Lyrics:     sampleLines,
	}

	t.Run("Playing With Lyrics", func(t *testing.T) {
		output := SongToText(state)
		for _, want := range []string{"Bar - Foo", "Playing [1:03 / 3:20]", art, "> second, with comma", "  third"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
	})

	t.Run("Paused Without Lyrics", func(t *testing.T) {
		paused := *state
		paused.IsPlaying = false
		paused.Lyrics = nil
		paused.AlbumArt = nil

		output := SongToText(&paused)
		if !strings.Contains(output, "Paused") {
			t.Errorf("expected paused status, got:\n%s", output)
		}
		if strings.Contains(output, ">") || strings.Contains(output, "Album art") {
			t.Errorf("expected no lyrics or art, got:\n%s", output)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("LyricsToText", func(t *testing.T) {
		output := LyricsToText(sampleLines)
		if !strings.HasPrefix(output, "[0:01] first\n") {
			t.Errorf("unexpected output:\n%s", output)
		}
		if strings.Count(output, "\n") != 3 {
			t.Errorf("expected 3 lines, got:\n%s", output)
		}
	})

	t.Run("ToLRC Round Trips", func(t *testing.T) {
		data := ToLRC("Bar", "Foo", sampleLines)
		if !strings.HasPrefix(string(data), "[ar:Bar]\n[ti:Foo]\n[00:01.00]first\n") {
			t.Errorf("unexpected LRC:\n%s", data)
		}

		parsed := lyrics.Parse(string(data))
		if len(parsed) != len(sampleLines) {
			t.Fatalf("expected %d lines back, got %+v", len(sampleLines), parsed)
		}
		for i := range parsed {
			if parsed[i] != sampleLines[i] {
				t.Errorf("line %d: expected %+v, got %+v", i, sampleLines[i], parsed[i])
			}
		}
	})

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(sampleLines)
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}
		output := string(data)
		if !strings.Contains(output, "start_ms,timestamp,words") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `62500,1:02,"second, with comma"`) {
			t.Errorf("CSV missing quoted record, got: %s", output)
		}
	})

	t.Run("Render", func(t *testing.T) {
		if _, err := Render("yaml", "", "", sampleLines); err == nil {
			t.Error("expected error for unsupported format")
		}
		data, err := Render("", "", "", sampleLines)
		if err != nil || string(data) != LyricsToText(sampleLines) {
			t.Errorf("expected text by default, got %q (%v)", data, err)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "foo.lrc")
		if err := WriteExport(path, FormatLRC, "Bar", "Foo", sampleLines); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.Contains(string(data), "[01:02.50]second, with comma") {
			t.Errorf("unexpected file contents:\n%s", data)
		}

		if err := WriteExport(filepath.Join(t.TempDir(), "missing", "x.lrc"), FormatLRC, "", "", sampleLines); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}
