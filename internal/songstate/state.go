package songstate

import (
	"github.com/desertthunder/lyricsync/internal/lyrics"
	"github.com/desertthunder/lyricsync/internal/playback"
)

// SongState is the response object served to clients.
//
// AlbumArt encodes as null when the track has no images. Lyrics is omitted entirely when absent.
type SongState struct {
	Name       string        `json:"name"`
	Artist     string        `json:"artist"`
	ProgressMS uint          `json:"progress_ms"`
	IsPlaying  bool          `json:"is_playing"`
	Timestamp  int64         `json:"timestamp"`
	AlbumArt   *string       `json:"album_art"`
	DurationMS uint          `json:"duration_ms"`
	Lyrics     []lyrics.Line `json:"lyrics,omitempty"`
	TrackID    string        `json:"-"`
}

func fromSnapshot(snap *playback.Snapshot, timestamp int64) *SongState {
	return &SongState{
		TrackID:    snap.TrackID,
		Name:       snap.TrackName,
		Artist:     snap.ArtistName,
		ProgressMS: snap.ProgressMS,
		IsPlaying:  snap.IsPlaying,
		Timestamp:  timestamp,
		AlbumArt:   snap.AlbumArtURL,
		DurationMS: snap.DurationMS,
	}
}
