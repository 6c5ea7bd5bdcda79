package cue

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// framesPerSecond is the CD cuesheet convention: INDEX offsets carry a
// fractional-second frame count out of 75.
const framesPerSecond = 75

// maxTracksPerBlock is the cuesheet format's cap on track numbers. When a
// recording exceeds it, a new FILE block is started in the same sheet,
// numbering restarts at 1, and the block references the same audio file.
const maxTracksPerBlock = 99

// CueSheetWriter appends cuesheet TRACK entries for a single audio file.
//
// Time offsets stay absolute (relative to the start of the audio file)
// across block boundaries, as recorded; players that read back-to-back
// FILE blocks seek within the one shared file.
type CueSheetWriter struct {
	performer string
	audioFile string
	path      string

	f       *os.File
	trackNo int
}

// NewCueSheetWriter returns a writer for path. performer is the station
// name, audioFile the (relative) audio file name referenced by FILE lines.
func NewCueSheetWriter(performer, audioFile, path string) *CueSheetWriter {
	return &CueSheetWriter{
		performer: performer,
		audioFile: audioFile,
		path:      path,
		trackNo:   1,
	}
}

// cueTime formats a duration as MM:SS:FF.
func cueTime(d time.Duration) string {
	totalFrames := int64(d) * framesPerSecond / int64(time.Second)
	mm := totalFrames / (framesPerSecond * 60)
	ss := (totalFrames / framesPerSecond) % 60
	ff := totalFrames % framesPerSecond
	return fmt.Sprintf("%02d:%02d:%02d", mm, ss, ff)
}

func (w *CueSheetWriter) header() string {
	return strings.Join([]string{
		fmt.Sprintf("PERFORMER \"%s\"", w.performer),
		fmt.Sprintf("FILE \"%s\" WAVE", w.audioFile),
	}, "\n")
}

func (w *CueSheetWriter) entry(t Track) string {
	prefix := ""
	if w.trackNo > maxTracksPerBlock {
		w.trackNo = 1
		prefix = "\n"
	}

	artist, title := t.ArtistTitle()
	item := strings.Join([]string{
		fmt.Sprintf("  TRACK %02d AUDIO", w.trackNo),
		fmt.Sprintf("    TITLE \"%s\"", title),
		fmt.Sprintf("    PERFORMER \"%s\"", artist),
		fmt.Sprintf("    INDEX 01 %s", cueTime(t.Offset)),
		fmt.Sprintf("    REM FILEPOS %d", t.FilePos),
		fmt.Sprintf("    REM COVER \"%s\"", t.Cover),
	}, "\n")
	if w.trackNo == 1 {
		item = prefix + w.header() + "\n" + item
	}
	w.trackNo++
	return item
}

// Add appends one track entry, creating the file on first use.
func (w *CueSheetWriter) Add(t Track) error {
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open cuesheet %s: %w", w.path, err)
		}
		w.f = f
	}
	if _, err := fmt.Fprintln(w.f, w.entry(t)); err != nil {
		return fmt.Errorf("write cuesheet %s: %w", w.path, err)
	}
	return nil
}

// Close closes the file if one was created.
func (w *CueSheetWriter) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
