package shoutcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePLS(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "standard",
			body: "[playlist]\nNumberOfEntries=1\nFile1=http://stream.example.com:8000/live\nTitle1=Example\n",
			want: "http://stream.example.com:8000/live",
		},
		{
			name: "whitespace around value",
			body: "File1= http://stream.example.com/live \n",
			want: "http://stream.example.com/live",
		},
		{
			name:    "no file entries",
			body:    "[playlist]\nNumberOfEntries=0\n",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parsePLS(strings.NewReader(tc.body))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseM3U(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "extended",
			body: "#EXTM3U\n#EXTINF:-1,Example\nhttp://stream.example.com/live\n",
			want: "http://stream.example.com/live",
		},
		{
			name: "plain",
			body: "https://stream.example.com/live\n",
			want: "https://stream.example.com/live",
		},
		{
			name:    "comments only",
			body:    "#EXTM3U\n# nothing here\n",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseM3U(strings.NewReader(tc.body))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolvePlaylistURL(t *testing.T) {
	t.Run("icy stream returned unchanged", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("icy-metaint", "16000")
			_, _ = w.Write([]byte("audio"))
		}))
		defer srv.Close()

		got, err := resolvePlaylistURL(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, srv.URL, got)
	})

	t.Run("pls by content type", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/x-scpls")
			_, _ = w.Write([]byte("[playlist]\nFile1=http://stream.example.com/live\n"))
		}))
		defer srv.Close()

		got, err := resolvePlaylistURL(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "http://stream.example.com/live", got)
	})

	t.Run("m3u by extension", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("#EXTM3U\nhttp://stream.example.com/live\n"))
		}))
		defer srv.Close()

		got, err := resolvePlaylistURL(context.Background(), srv.URL+"/station.m3u")
		require.NoError(t, err)
		assert.Equal(t, "http://stream.example.com/live", got)
	})

	t.Run("mislabeled playlist sniffed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("[playlist]\nFile1=http://stream.example.com/live\n"))
		}))
		defer srv.Close()

		got, err := resolvePlaylistURL(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "http://stream.example.com/live", got)
	})

	t.Run("plain audio treated as stream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00})
		}))
		defer srv.Close()

		got, err := resolvePlaylistURL(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, srv.URL, got)
	})
}
