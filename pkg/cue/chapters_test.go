package cue

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChapterWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")

	w := NewChapterWriter(path, "Test FM")
	require.NoError(t, w.Add(Track{Title: "Artist - Song & More", Offset: 0}))
	require.NoError(t, w.Add(Track{Title: "Solo Piece", Offset: 3*time.Minute + 1500*time.Millisecond}))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(got)

	// the result is well-formed XML
	var doc struct {
		XMLName xml.Name `xml:"Chapters"`
		Edition struct {
			Display struct {
				String string `xml:"EditionString"`
			} `xml:"EditionDisplay"`
			Atoms []struct {
				UID     int    `xml:"ChapterUID"`
				Start   string `xml:"ChapterTimeStart"`
				Display struct {
					String string `xml:"ChapterString"`
				} `xml:"ChapterDisplay"`
			} `xml:"ChapterAtom"`
		} `xml:"EditionEntry"`
	}
	require.NoError(t, xml.Unmarshal(got, &doc))

	assert.Equal(t, "Test FM", doc.Edition.Display.String)
	require.Len(t, doc.Edition.Atoms, 2)

	assert.Equal(t, 1, doc.Edition.Atoms[0].UID)
	assert.Equal(t, "00:00:00.000000000", doc.Edition.Atoms[0].Start)
	assert.Equal(t, "Artist — Song & More", doc.Edition.Atoms[0].Display.String)

	assert.Equal(t, 2, doc.Edition.Atoms[1].UID)
	assert.Equal(t, "00:03:01.500000000", doc.Edition.Atoms[1].Start)
	assert.Equal(t, "Solo Piece", doc.Edition.Atoms[1].Display.String)

	// special characters are escaped on the wire
	assert.Contains(t, content, "Song &amp; More")
}

func TestChapterWriterLazyOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.xml")

	w := NewChapterWriter(path, "Test FM")
	require.NoError(t, w.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
