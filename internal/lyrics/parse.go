package lyrics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/lyricsync/internal/shared"
)

// Line is a single lyric line with its absolute offset from the start of the track.
type Line struct {
	StartTimeMS uint   `json:"startTimeMs"`
	Text        string `json:"words"`
}

// Parse converts an LRC blob ("[mm:ss.xx]text" per line) into lines.
//
// Lines that fail [ParseLine] are dropped; the result is nil when nothing survives.
func Parse(blob string) []Line {
	var lines []Line
	for _, raw := range strings.Split(blob, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line, err := ParseLine(raw)
		if err != nil {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseLine parses one "[mm:ss.xx]text" line.
//
// The fraction is read as a decimal fraction of a second, so ".5", ".50" and ".500" are all 500ms.
// Metadata tags such as "[ar:Artist]", missing brackets and empty text yield [shared.ErrMalformedLine].
func ParseLine(raw string) (Line, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		return Line{}, fmt.Errorf("%w: missing opening bracket", shared.ErrMalformedLine)
	}

	end := strings.IndexByte(raw, ']')
	if end < 0 {
		return Line{}, fmt.Errorf("%w: missing closing bracket", shared.ErrMalformedLine)
	}

	start, err := parseTimestamp(raw[1:end])
	if err != nil {
		return Line{}, err
	}

	text := strings.TrimSpace(raw[end+1:])
	if text == "" {
		return Line{}, fmt.Errorf("%w: empty text", shared.ErrMalformedLine)
	}

	return Line{StartTimeMS: start, Text: text}, nil
}

func parseTimestamp(ts string) (uint, error) {
	minutes, rest, ok := strings.Cut(ts, ":")
	if !ok {
		return 0, fmt.Errorf("%w: timestamp %q has no minutes", shared.ErrMalformedLine, ts)
	}
	seconds, fraction, ok := strings.Cut(rest, ".")
	if !ok {
		return 0, fmt.Errorf("%w: timestamp %q has no fraction", shared.ErrMalformedLine, ts)
	}

	mm, err := digits(minutes, 1, 3)
	if err != nil {
		return 0, err
	}
	ss, err := digits(seconds, 1, 2)
	if err != nil {
		return 0, err
	}
	if ss >= 60 {
		return 0, fmt.Errorf("%w: seconds out of range in %q", shared.ErrMalformedLine, ts)
	}
	ff, err := digits(fraction, 1, 3)
	if err != nil {
		return 0, err
	}
	for i := len(fraction); i < 3; i++ {
		ff *= 10
	}

	return mm*60000 + ss*1000 + ff, nil
}

// digits parses s as an unsigned decimal of between minLen and maxLen digits.
func digits(s string, minLen, maxLen int) (uint, error) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, fmt.Errorf("%w: field %q has wrong width", shared.ErrMalformedLine, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: field %q is not numeric", shared.ErrMalformedLine, s)
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrMalformedLine, err)
	}
	return uint(n), nil
}
