package recorder

import (
	"time"

	"github.com/airwav/icyrec/pkg/cue"
	"github.com/airwav/icyrec/pkg/shoutcast"
)

// boundaryTracker converts metadata announcements into track changes.
// Streams repeat the same metadata block many times while a track plays, so
// announcements are deduplicated by exact title equality; only a changed
// title becomes an event.
//
// Offsets are estimated from the bytes recorded so far divided by the
// stream's nominal bitrate, since no decoded-audio timestamp is available.
// That is the documented (and accepted) source of timestamp inaccuracy.
// Without a known bitrate the wall clock is the fallback.
type boundaryTracker struct {
	bitrateKbps int
	start       time.Time

	lastTitle string
	seen      bool
}

func newBoundaryTracker(bitrateKbps int, start time.Time) *boundaryTracker {
	return &boundaryTracker{bitrateKbps: bitrateKbps, start: start}
}

// rebase moves the wall-clock reference point, used when an on-track start
// begins recording later than the connection was opened.
func (bt *boundaryTracker) rebase(now time.Time) { bt.start = now }

// setBitrate installs a bitrate learned after construction, e.g. sniffed
// from the first MP3 frame header when the server does not advertise one.
func (bt *boundaryTracker) setBitrate(kbps int) {
	if bt.bitrateKbps == 0 && kbps > 0 {
		bt.bitrateKbps = kbps
	}
}

// elapsed estimates the recording position for a given byte count.
func (bt *boundaryTracker) elapsed(bytes int64, now time.Time) time.Duration {
	if bt.bitrateKbps > 0 {
		secs := float64(bytes) * 8 / float64(bt.bitrateKbps*1000)
		return time.Duration(secs * float64(time.Second))
	}
	return now.Sub(bt.start)
}

// observe handles one metadata announcement. It returns a track change and
// true when the announced title differs from the last seen one; repeats and
// announcements without a parsable title return false.
func (bt *boundaryTracker) observe(m *shoutcast.Metadata, bytes int64, now time.Time) (cue.Track, bool) {
	if m == nil || m.StreamTitle == "" {
		return cue.Track{}, false
	}
	if bt.seen && m.StreamTitle == bt.lastTitle {
		return cue.Track{}, false
	}
	bt.lastTitle = m.StreamTitle
	bt.seen = true

	return cue.Track{
		FilePos: bytes,
		Offset:  bt.elapsed(bytes, now),
		Title:   m.StreamTitle,
		Cover:   m.StreamURL,
	}, true
}
