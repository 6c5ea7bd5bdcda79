package cue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCueTime(t *testing.T) {
	cases := []struct {
		offset time.Duration
		want   string
	}{
		{offset: 0, want: "00:00:00"},
		{offset: time.Second, want: "00:01:00"},
		{offset: 500 * time.Millisecond, want: "00:00:37"},
		{offset: 61 * time.Second, want: "01:01:00"},
		{offset: 90 * time.Minute, want: "90:00:00"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, cueTime(tc.offset))
	}
}

func TestCueSheetWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.cue")

	w := NewCueSheetWriter("Test FM", "out.mp3", path)
	require.NoError(t, w.Add(Track{
		Title:   "Artist One - Song One",
		Offset:  0,
		FilePos: 0,
		Cover:   "http://example.com/one.jpg",
	}))
	require.NoError(t, w.Add(Track{
		Title:   "Artist Two - Song Two",
		Offset:  3*time.Minute + 30*time.Second,
		FilePos: 3360000,
		Cover:   "http://example.com/two.jpg",
	}))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `PERFORMER "Test FM"
FILE "out.mp3" WAVE
  TRACK 01 AUDIO
    TITLE "Song One"
    PERFORMER "Artist One"
    INDEX 01 00:00:00
    REM FILEPOS 0
    REM COVER "http://example.com/one.jpg"
  TRACK 02 AUDIO
    TITLE "Song Two"
    PERFORMER "Artist Two"
    INDEX 01 03:30:00
    REM FILEPOS 3360000
    REM COVER "http://example.com/two.jpg"
`
	assert.Equal(t, want, string(got))
}

func TestCueSheetWriterBlockWrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.cue")

	w := NewCueSheetWriter("Test FM", "long.mp3", path)
	for i := 0; i < 150; i++ {
		require.NoError(t, w.Add(Track{
			Title:   fmt.Sprintf("Artist - Song %d", i+1),
			Offset:  time.Duration(i) * time.Minute,
			FilePos: int64(i) * 1000,
		}))
	}
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(got)

	// numbering runs 1..99, then a second block restarts at 1
	assert.Equal(t, 2, strings.Count(content, `FILE "long.mp3" WAVE`))
	assert.Equal(t, 2, strings.Count(content, "TRACK 01 AUDIO"))
	assert.Equal(t, 1, strings.Count(content, "TRACK 99 AUDIO"))
	assert.NotContains(t, content, "TRACK 100")

	// offsets stay absolute across the block boundary: track 100 of the
	// recording is the second block's TRACK 01 at 99 minutes
	secondBlock := content[strings.LastIndex(content, "PERFORMER \"Test FM\""):]
	assert.Contains(t, secondBlock, "INDEX 01 99:00:00")
	assert.Contains(t, secondBlock, "REM FILEPOS 99000")
}

func TestCueSheetWriterLazyOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.cue")

	w := NewCueSheetWriter("Test FM", "never.mp3", path)
	require.NoError(t, w.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
