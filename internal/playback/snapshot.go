package playback

import (
	"time"

	"github.com/desertthunder/lyricsync/internal/services"
)

// Snapshot is a point-in-time capture of upstream playback state.
//
// ProgressMS always lies within [0, DurationMS].
type Snapshot struct {
	TrackID     string
	TrackName   string
	ArtistName  string
	AlbumArtURL *string
	DurationMS  uint
	ProgressMS  uint
	IsPlaying   bool
	FetchedAt   time.Time
}

// FromCurrentlyPlaying converts an upstream response into a [Snapshot] taken at fetchedAt.
//
// It returns nil when nothing is playing (no response or no item).
func FromCurrentlyPlaying(cp *services.CurrentlyPlaying, fetchedAt time.Time) *Snapshot {
	if cp == nil || cp.Item == nil {
		return nil
	}

	var duration uint
	if cp.Item.DurationMS > 0 {
		duration = uint(cp.Item.DurationMS)
	}

	var progress uint
	if cp.ProgressMS != nil && *cp.ProgressMS > 0 {
		progress = min(uint(*cp.ProgressMS), duration)
	}

	return &Snapshot{
		TrackID:     cp.Item.ID,
		TrackName:   cp.Item.Name,
		ArtistName:  cp.Item.PrimaryArtist(),
		AlbumArtURL: cp.Item.AlbumArtURL(),
		DurationMS:  duration,
		ProgressMS:  progress,
		IsPlaying:   cp.IsPlaying,
		FetchedAt:   fetchedAt,
	}
}

// At returns a copy of s with progress advanced to now.
//
// Paused snapshots are returned unchanged. A clock that reads earlier than FetchedAt advances nothing.
func (s Snapshot) At(now time.Time) Snapshot {
	if !s.IsPlaying {
		return s
	}

	elapsed := now.Sub(s.FetchedAt).Milliseconds()
	if elapsed <= 0 {
		return s
	}

	progress := uint64(s.ProgressMS) + uint64(elapsed)
	s.ProgressMS = uint(min(progress, uint64(s.DurationMS)))
	return s
}

// SameTrack reports whether both snapshots describe the same track.
func (s *Snapshot) SameTrack(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.TrackID == other.TrackID && s.TrackName == other.TrackName && s.ArtistName == other.ArtistName
}
