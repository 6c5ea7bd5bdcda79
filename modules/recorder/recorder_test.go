package recorder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grafana/dskit/modules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderRejectsInvalidConfig(t *testing.T) {
	r, err := New(Config{}, *testLogger(), prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Error(t, r.starting(context.Background()))
}

func TestRecorderDefaults(t *testing.T) {
	r, err := New(Config{}, *testLogger(), prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, defaultWriteBufferSize, r.cfg.WriteBufferSize)
	assert.Equal(t, defaultQueueDepth, r.cfg.QueueDepth)
	assert.Equal(t, defaultReconnectInitial, r.cfg.ReconnectBackoff)
	assert.Equal(t, defaultReconnectMax, r.cfg.ReconnectBackoffMax)
}

func TestRecorderRunsAllStreams(t *testing.T) {
	body, audio := fourCycles()
	srv := icyServer(t, body)

	dir := t.TempDir()
	cfg := Config{
		Streams: []StreamConfig{
			{Name: "First FM", URL: srv.URL, Type: "mp3"},
			{Name: "Second FM", URL: srv.URL, Type: "mp3"},
		},
		Dir:       dir,
		StartMode: string(CutImmediate),
		StopMode:  string(CutImmediate),
	}

	r, err := New(cfg, *testLogger(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, r.starting(context.Background()))

	// all sessions end with the stream, so the module asks the process to stop
	err = r.running(context.Background())
	assert.Equal(t, modules.ErrStopProcess, err)

	for _, prefix := range []string{"First_FM_", "Second_FM_"} {
		files, globErr := filepath.Glob(filepath.Join(dir, prefix+"*.mp3"))
		require.NoError(t, globErr)
		require.Len(t, files, 1, prefix)

		got, readErr := os.ReadFile(files[0])
		require.NoError(t, readErr)
		assert.Equal(t, audio, got, prefix)
	}
}

func TestRecorderJoinsSessionErrors(t *testing.T) {
	body, _ := fourCycles()
	srv := icyServer(t, body)

	cfg := Config{
		Streams: []StreamConfig{
			{Name: "Good FM", URL: srv.URL, Type: "mp3"},
			{Name: "Bad FM", URL: "http://127.0.0.1:1/nope", Type: "mp3"},
		},
		Dir:       t.TempDir(),
		StartMode: string(CutImmediate),
		StopMode:  string(CutImmediate),
	}

	r, err := New(cfg, *testLogger(), prometheus.NewRegistry())
	require.NoError(t, err)

	// the failing session surfaces, the healthy one still completes
	err = r.running(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad FM")

	files, err := filepath.Glob(filepath.Join(cfg.Dir, "Good_FM_*.mp3"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
