package cue

import (
	"fmt"
	"os"
)

// TrackListWriter appends one human-readable line per track change:
// elapsed offset and announced title. Unlike the cuesheet format it has no
// track cap.
type TrackListWriter struct {
	path string
	f    *os.File
}

func NewTrackListWriter(path string) *TrackListWriter {
	return &TrackListWriter{path: path}
}

// Add appends "H:MM:SS -- title", creating the file on first use.
func (w *TrackListWriter) Add(t Track) error {
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open track list %s: %w", w.path, err)
		}
		w.f = f
	}
	if _, err := fmt.Fprintf(w.f, "%s -- %s\n", t.OffsetString(), t.Title); err != nil {
		return fmt.Errorf("write track list %s: %w", w.path, err)
	}
	return nil
}

// Close closes the file if one was created.
func (w *TrackListWriter) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
