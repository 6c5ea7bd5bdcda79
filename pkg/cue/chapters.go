package cue

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ChapterWriter emits Matroska chapter XML, suitable for muxing the
// recording into an .mka container with mkvmerge.
type ChapterWriter struct {
	path        string
	editionName string

	f          *os.File
	chapterUID int
}

// NewChapterWriter returns a writer for path. editionName, usually the
// station name, becomes the edition display string.
func NewChapterWriter(path, editionName string) *ChapterWriter {
	return &ChapterWriter{path: path, editionName: editionName, chapterUID: 1}
}

func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// chapterTime formats an offset as HH:MM:SS.NNNNNNNNN (nanoseconds).
func chapterTime(d time.Duration) string {
	ns := d.Nanoseconds()
	hh := ns / int64(time.Hour)
	rem := ns % int64(time.Hour)
	mm := rem / int64(time.Minute)
	rem %= int64(time.Minute)
	ss := rem / int64(time.Second)
	frac := rem % int64(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d.%09d", hh, mm, ss, frac)
}

func (w *ChapterWriter) openIfNeeded() error {
	if w.f != nil {
		return nil
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open chapter file %s: %w", w.path, err)
	}
	w.f = f
	fmt.Fprintln(f, `<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintln(f, "<Chapters>")
	fmt.Fprintln(f, "  <EditionEntry>")
	if w.editionName != "" {
		fmt.Fprintln(f, "    <EditionDisplay>")
		fmt.Fprintf(f, "      <EditionString>%s</EditionString>\n", xmlEscape(w.editionName))
		fmt.Fprintln(f, "    </EditionDisplay>")
	}
	return nil
}

// Add appends one chapter atom, creating the file and writing the XML
// prologue on first use.
func (w *ChapterWriter) Add(t Track) error {
	if err := w.openIfNeeded(); err != nil {
		return err
	}

	artist, title := t.ArtistTitle()
	display := title
	if artist != "" {
		display = artist + " — " + title
	}
	display = xmlEscape(strings.TrimSpace(display))

	uid := w.chapterUID
	w.chapterUID++

	var b strings.Builder
	fmt.Fprintln(&b, "    <ChapterAtom>")
	fmt.Fprintf(&b, "      <ChapterUID>%d</ChapterUID>\n", uid)
	fmt.Fprintf(&b, "      <ChapterTimeStart>%s</ChapterTimeStart>\n", chapterTime(t.Offset))
	fmt.Fprintln(&b, "      <ChapterDisplay>")
	fmt.Fprintf(&b, "        <ChapterString>%s</ChapterString>\n", display)
	fmt.Fprintln(&b, "      </ChapterDisplay>")
	fmt.Fprint(&b, "    </ChapterAtom>")

	if _, err := fmt.Fprintln(w.f, b.String()); err != nil {
		return fmt.Errorf("write chapter file %s: %w", w.path, err)
	}
	return nil
}

// Close writes the XML epilogue and closes the file, if one was created.
func (w *ChapterWriter) Close() error {
	if w.f == nil {
		return nil
	}
	fmt.Fprintln(w.f, "  </EditionEntry>")
	fmt.Fprintln(w.f, "</Chapters>")
	err := w.f.Close()
	w.f = nil
	return err
}
