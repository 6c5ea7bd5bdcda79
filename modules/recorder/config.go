package recorder

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/util"
)

// Write buffer sizing guidance (write-buffer-size):
// - SSD wear: fewer, larger writes reduce I/O overhead; 256KiB–1MiB is a good range.
// - NFS: larger buffers amortize round-trip cost; 512KiB–1MiB often performs better than 256KiB.
// - Upper bound: config is clamped to 4MiB to limit memory and avoid huge single writes.
const (
	defaultWriteBufferSize  = 256 * 1024 // 256 KiB
	defaultReconnectInitial = 5 * time.Second
	defaultReconnectMax     = 60 * time.Second
	defaultQueueDepth       = 64
)

// CutMode controls where recording starts and stops relative to track
// boundaries.
type CutMode string

const (
	// CutImmediate starts or stops recording right away.
	CutImmediate CutMode = "immediate"

	// CutOnTrack aligns the cut with a track boundary: recording starts at
	// the first title change (dropping the partial first track) or keeps
	// going past the deadline until the current track ends.
	CutOnTrack CutMode = "on-track"
)

func parseCutMode(s string) (CutMode, error) {
	switch CutMode(strings.ToLower(s)) {
	case CutImmediate:
		return CutImmediate, nil
	case CutOnTrack:
		return CutOnTrack, nil
	}
	return "", fmt.Errorf("invalid cut mode %q (want %q or %q)", s, CutImmediate, CutOnTrack)
}

// StreamConfig describes one stream to record. Streams are fully
// independent sessions; recording them in one run shares nothing but the
// output directory.
type StreamConfig struct {
	Name      string `yaml:"name,omitempty"`      // station name, used for file naming and cuesheet PERFORMER
	URL       string `yaml:"url,omitempty"`       // stream or playlist (.pls/.m3u) URL
	Type      string `yaml:"type,omitempty"`      // audio file extension matching the stream codec, e.g. mp3
	Cuesheet  bool   `yaml:"cuesheet,omitempty"`  // write a .cue sheet alongside the audio
	Tracklist bool   `yaml:"tracklist,omitempty"` // write a plain-text .txt track list
	Chapters  bool   `yaml:"chapters,omitempty"`  // write Matroska chapter XML for mkvmerge
}

type Config struct {
	Streams []StreamConfig `yaml:"streams,omitempty"`

	Dir                 string        `yaml:"dir,omitempty"`
	Duration            time.Duration `yaml:"duration,omitempty"`   // 0 records until stopped
	StartMode           string        `yaml:"start-mode,omitempty"` // immediate | on-track
	StopMode            string        `yaml:"stop-mode,omitempty"`  // immediate | on-track
	Reconnect           bool          `yaml:"reconnect,omitempty"`  // reconnect on stream errors instead of aborting
	ReconnectBackoff    time.Duration `yaml:"reconnect-backoff,omitempty"`
	ReconnectBackoffMax time.Duration `yaml:"reconnect-backoff-max,omitempty"`
	WriteBufferSize     int           `yaml:"write-buffer-size,omitempty"`
	QueueDepth          int           `yaml:"queue-depth,omitempty"` // chunks buffered between reader and writer
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Dir, util.PrefixConfig(prefix, "dir"), "", "The directory to save recordings")
	f.DurationVar(&cfg.Duration, util.PrefixConfig(prefix, "duration"), 0,
		"How long to record. 0 records until interrupted.")
	f.StringVar(&cfg.StartMode, util.PrefixConfig(prefix, "start-mode"), string(CutImmediate),
		"Where to start recording: 'immediate' or 'on-track' (skip the partial first track).")
	f.StringVar(&cfg.StopMode, util.PrefixConfig(prefix, "stop-mode"), string(CutImmediate),
		"Where to stop when the duration elapses: 'immediate' or 'on-track' (finish the current track).")
	f.BoolVar(&cfg.Reconnect, util.PrefixConfig(prefix, "reconnect"), false,
		"Reconnect with backoff when the stream connection fails instead of aborting the session.")
	f.DurationVar(&cfg.ReconnectBackoff, util.PrefixConfig(prefix, "reconnect-backoff"), defaultReconnectInitial,
		"Initial delay before reconnecting after stream disconnect. Exponential backoff is used up to reconnect-backoff-max.")
	f.DurationVar(&cfg.ReconnectBackoffMax, util.PrefixConfig(prefix, "reconnect-backoff-max"), defaultReconnectMax,
		"Maximum delay between reconnection attempts.")
	f.IntVar(&cfg.WriteBufferSize, util.PrefixConfig(prefix, "write-buffer-size"), defaultWriteBufferSize,
		"Bytes to buffer in memory before writing to disk (default 256KiB). Larger values reduce write frequency (helps SSD longevity and NFS). Reasonable range: 256KiB-1MiB.")
	f.IntVar(&cfg.QueueDepth, util.PrefixConfig(prefix, "queue-depth"), defaultQueueDepth,
		"Decoded chunks buffered between the stream reader and the file writer. The reader blocks when full.")
}

// Validate checks the parts of the config that cannot be defaulted.
func (cfg *Config) Validate() error {
	if len(cfg.Streams) == 0 {
		return fmt.Errorf("no streams configured")
	}
	for i, sc := range cfg.Streams {
		if sc.URL == "" {
			return fmt.Errorf("stream %d: url is required", i)
		}
		if sc.Name == "" {
			return fmt.Errorf("stream %d: name is required", i)
		}
	}
	if _, err := parseCutMode(cfg.StartMode); err != nil {
		return fmt.Errorf("start-mode: %w", err)
	}
	if _, err := parseCutMode(cfg.StopMode); err != nil {
		return fmt.Errorf("stop-mode: %w", err)
	}
	return nil
}
