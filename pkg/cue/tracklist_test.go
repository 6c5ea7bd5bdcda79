package cue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackListWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	w := NewTrackListWriter(path)
	require.NoError(t, w.Add(Track{Title: "Artist One - Song One", Offset: 0}))
	require.NoError(t, w.Add(Track{Title: "Artist Two - Song Two", Offset: 65 * time.Second}))
	require.NoError(t, w.Add(Track{Title: "Station Jingle", Offset: 2 * time.Hour}))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "0:00:00 -- Artist One - Song One\n" +
		"0:01:05 -- Artist Two - Song Two\n" +
		"2:00:00 -- Station Jingle\n"
	assert.Equal(t, want, string(got))
}

func TestTrackListWriterLazyOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.txt")

	w := NewTrackListWriter(path)
	require.NoError(t, w.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
