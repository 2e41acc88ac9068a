// Package lyrics parses time-coded LRC lyrics and caches them per track.
//
// [Store] keys entries by the normalized (artist, title) pair and keeps at most a fixed number of tracks,
// evicting the least recently used. Lines carry absolute offsets from the start of the track; matching them
// against the playback position is left to the consumer.
package lyrics
