package cue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArtistTitle(t *testing.T) {
	cases := []struct {
		name       string
		title      string
		wantArtist string
		wantTitle  string
	}{
		{name: "standard", title: "Artist - Song", wantArtist: "Artist", wantTitle: "Song"},
		{name: "no separator", title: "Station Jingle", wantArtist: "", wantTitle: "Station Jingle"},
		{name: "hyphenated words untouched", title: "Jean-Michel Jarre - Oxygene", wantArtist: "Jean-Michel Jarre", wantTitle: "Oxygene"},
		{name: "split at first separator", title: "Artist - Song - Live Version", wantArtist: "Artist", wantTitle: "Song - Live Version"},
		{name: "empty", title: "", wantArtist: "", wantTitle: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			artist, title := Track{Title: tc.title}.ArtistTitle()
			assert.Equal(t, tc.wantArtist, artist)
			assert.Equal(t, tc.wantTitle, title)
		})
	}
}

func TestOffsetString(t *testing.T) {
	cases := []struct {
		offset time.Duration
		want   string
	}{
		{offset: 0, want: "0:00:00"},
		{offset: 5 * time.Second, want: "0:00:05"},
		{offset: 61 * time.Second, want: "0:01:01"},
		{offset: 2*time.Hour + 3*time.Minute + 4*time.Second, want: "2:03:04"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Track{Offset: tc.offset}.OffsetString())
	}
}
