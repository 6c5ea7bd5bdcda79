// Package cue emits track-boundary sidecar files for a recorded audio
// stream: standard cuesheets, plain-text track lists and Matroska chapter
// XML. All writers open their file lazily on the first track, so a session
// without any track change produces no sidecar file at all.
package cue

import (
	"fmt"
	"regexp"
	"time"
)

// Track is one track-change event within a recording: the elapsed offset at
// which a new title was announced, the position in the audio file, and the
// announced title text.
type Track struct {
	// Index is the 1-based sequence number within the recording.
	Index int

	// FilePos is the byte offset in the audio file at the announcement.
	FilePos int64

	// Offset is the elapsed time since recording start.
	Offset time.Duration

	// Title is the raw announced title, usually "Artist - Title".
	Title string

	// Cover is the announced artwork URL, when the station publishes one.
	Cover string
}

var artistTitleSep = regexp.MustCompile(`\s+-\s+`)

// ArtistTitle splits the announced title on the "Artist - Title" convention.
// Without a separator the whole string is the title and the artist is empty.
func (t Track) ArtistTitle() (artist, title string) {
	parts := artistTitleSep.Split(t.Title, 2)
	if len(parts) < 2 {
		return "", t.Title
	}
	return parts[0], parts[1]
}

// OffsetString formats the offset as H:MM:SS.
func (t Track) OffsetString() string {
	secs := int(t.Offset / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Writer is a sidecar artifact sink fed one track change at a time.
type Writer interface {
	Add(t Track) error
	Close() error
}
