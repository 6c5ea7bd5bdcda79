package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/grafana/dskit/backoff"

	"github.com/airwav/icyrec/pkg/cue"
	"github.com/airwav/icyrec/pkg/mp3"
	"github.com/airwav/icyrec/pkg/shoutcast"
)

type sessionState string

const (
	stateIdle       sessionState = "Idle"
	stateConnecting sessionState = "Connecting"
	stateRecording  sessionState = "Recording"
	stateCompleted  sessionState = "Completed"
	stateAborted    sessionState = "Aborted"
)

// session records one configured stream. Sessions share nothing; each owns
// its connection, its output file and its sidecar writers exclusively.
type session struct {
	cfg     *Config
	stream  StreamConfig
	logger  *slog.Logger
	metrics *metrics

	startMode CutMode
	stopMode  CutMode
	state     sessionState
}

func newSession(cfg *Config, sc StreamConfig, logger *slog.Logger, m *metrics) *session {
	// modes were validated with the config
	startMode, _ := parseCutMode(cfg.StartMode)
	stopMode, _ := parseCutMode(cfg.StopMode)

	return &session{
		cfg:       cfg,
		stream:    sc,
		logger:    logger.With("stream", sc.Name),
		metrics:   m,
		startMode: startMode,
		stopMode:  stopMode,
		state:     stateIdle,
	}
}

func (s *session) setState(st sessionState) {
	s.state = st
	s.logger.Debug("session state", "state", st)
}

var (
	unsafeNameChars = regexp.MustCompile(`[^\w\-.()\[\]]`)
	repeatedScores  = regexp.MustCompile(`__+`)
)

// sanitizeName makes a station name safe for use in a file name.
func sanitizeName(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "_")
	return repeatedScores.ReplaceAllString(s, "_")
}

// run drives the session to a terminal state. It returns nil when the
// session completed (duration expiry, clean stream end, or cancellation)
// and the terminating error when it aborted. Both outcomes leave a usable
// audio file and whatever artifacts were collected; the finalize sequence
// is identical on every path.
func (s *session) run(ctx context.Context) error {
	s.metrics.activeSessions.Inc()
	defer s.metrics.activeSessions.Dec()

	start := time.Now()

	ext := s.stream.Type
	if ext == "" {
		ext = "dat"
	}
	base := fmt.Sprintf("%s_%s.%s", sanitizeName(s.stream.Name), start.Format("20060102-150405"), ext)

	// The sink is opened before any network I/O so filesystem problems
	// surface immediately.
	if s.cfg.Dir != "" {
		if err := os.MkdirAll(s.cfg.Dir, os.ModePerm); err != nil {
			s.setState(stateAborted)
			return fmt.Errorf("%s: create output directory: %w", s.stream.Name, err)
		}
	}
	audioPath := filepath.Join(s.cfg.Dir, base)

	w, err := newFileWriter(audioPath, s.cfg.WriteBufferSize)
	if err != nil {
		s.setState(stateAborted)
		return fmt.Errorf("%s: create output file: %w", s.stream.Name, err)
	}

	sidecar := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	var writers []cue.Writer
	if s.stream.Cuesheet {
		writers = append(writers, cue.NewCueSheetWriter(s.stream.Name, base, sidecar+".cue"))
	}
	if s.stream.Tracklist {
		writers = append(writers, cue.NewTrackListWriter(sidecar+".txt"))
	}
	if s.stream.Chapters {
		writers = append(writers, cue.NewChapterWriter(sidecar+".xml", s.stream.Name))
	}
	em := newEmitter(s.logger, writers...)

	cause := s.record(ctx, start, w, em)

	// Finalize: identical on every exit path.
	em.closeAll()
	if err := w.Close(); err != nil {
		s.logger.Error("error closing output file", "err", err)
		cause = errors.Join(cause, err)
	}
	if w.Written() == 0 {
		// Nothing recorded; no point keeping an empty file.
		_ = w.Remove()
	}

	if cause != nil {
		s.setState(stateAborted)
		s.logger.Error("session aborted", "err", cause,
			"written", byteCountIEC(w.Written()), "tracks", em.tracks())
		return fmt.Errorf("%s: %w", s.stream.Name, cause)
	}

	s.setState(stateCompleted)
	s.logger.Info("session completed", "file", audioPath,
		"written", byteCountIEC(w.Written()), "tracks", em.tracks())
	return nil
}

// recording carries the mutable pipeline state that survives reconnects.
type recording struct {
	w  *fileWriter
	em *emitter
	bt *boundaryTracker

	deadline     time.Time
	recording    bool // audio is being written
	skippedFirst bool // on-track start: partial first track was skipped
	wantsStop    bool // duration elapsed; stop at the next track boundary
	sniffBudget  int  // chunks left to scan for an MP3 frame header
}

// record opens the connection and runs the pipeline, reconnecting on
// stream errors when configured. Connecting fails fast: the first open
// never retries.
func (s *session) record(ctx context.Context, start time.Time, w *fileWriter, em *emitter) error {
	s.setState(stateConnecting)
	st, err := shoutcast.Open(ctx, s.stream.URL)
	if err != nil {
		s.metrics.streamErrors.WithLabelValues(s.stream.Name).Inc()
		return err
	}

	rec := &recording{
		w:           w,
		em:          em,
		bt:          newBoundaryTracker(st.Bitrate, start),
		recording:   s.startMode == CutImmediate,
		sniffBudget: 4,
	}
	if s.cfg.Duration > 0 {
		rec.deadline = start.Add(s.cfg.Duration)
	}

	s.setState(stateRecording)
	s.logger.Info("connected", "name", st.Name,
		"bitrate", st.Bitrate, "metaint", st.MetadataInterval())
	if st.MetadataInterval() == 0 {
		s.logger.Info("no metadata interval advertised, recording audio only")
	}

	for {
		done, err := s.consume(ctx, st, rec)
		st.Close()
		if done {
			return nil
		}

		s.metrics.streamErrors.WithLabelValues(s.stream.Name).Inc()

		var serr *shoutcast.StreamError
		if !s.cfg.Reconnect || !errors.As(err, &serr) || ctx.Err() != nil {
			return err
		}

		// Reconnect with backoff; the writer, emitter and boundary tracker
		// carry on so byte accounting and offsets stay continuous.
		boff := backoff.New(ctx, backoff.Config{
			MinBackoff: s.cfg.ReconnectBackoff,
			MaxBackoff: s.cfg.ReconnectBackoffMax,
		})
		for boff.Ongoing() {
			s.metrics.reconnects.WithLabelValues(s.stream.Name).Inc()
			s.logger.Warn("stream failed, reconnecting", "err", err)
			boff.Wait()
			if boff.Err() != nil {
				break
			}
			next, oerr := shoutcast.Open(ctx, s.stream.URL)
			if oerr == nil {
				st = next
				rec.bt.setBitrate(st.Bitrate)
				s.logger.Info("reconnected", "name", st.Name)
				break
			}
			err = oerr
		}
		if boff.Err() != nil {
			// Cancelled while waiting; treat like any other cancellation.
			return nil
		}
	}
}

// consume runs the pipeline for one connection: a producer goroutine pulls
// decoded chunks into a bounded queue (backpressure: a slow disk blocks the
// socket read instead of growing memory), the session goroutine writes audio
// and feeds metadata to the boundary tracker. It returns done=true when the
// session should finalize cleanly, otherwise the error that ended the
// connection.
func (s *session) consume(ctx context.Context, st *shoutcast.Stream, rec *recording) (bool, error) {
	queue := make(chan shoutcast.Chunk, s.cfg.QueueDepth)
	readErr := make(chan error, 1)

	prodCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer close(queue)
		for {
			chunk, err := st.Next()
			if len(chunk.Audio) > 0 || chunk.Meta != nil {
				select {
				case queue <- chunk:
				case <-prodCtx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					readErr <- err
				}
				return
			}
		}
	}()

	var timerC <-chan time.Time
	if !rec.deadline.IsZero() {
		timer := time.NewTimer(time.Until(rec.deadline))
		defer timer.Stop()
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return true, nil

		case <-timerC:
			timerC = nil
			if s.stopMode == CutImmediate || rec.w.Written() == 0 {
				return true, nil
			}
			rec.wantsStop = true
			s.logger.Info("duration reached, stopping at track end")

		case chunk, ok := <-queue:
			if !ok {
				select {
				case err := <-readErr:
					return false, err
				default:
					s.logger.Info("stream ended")
					return true, nil
				}
			}
			done, err := s.handleChunk(chunk, rec)
			if done || err != nil {
				return done, err
			}
		}
	}
}

// handleChunk applies one decoded chunk to the recording state.
func (s *session) handleChunk(chunk shoutcast.Chunk, rec *recording) (bool, error) {
	now := time.Now()

	if chunk.Meta != nil {
		if t, changed := rec.bt.observe(chunk.Meta, rec.w.Written(), now); changed {
			if rec.wantsStop {
				// Track changed while a stop was pending; this is the boundary.
				return true, nil
			}
			switch {
			case rec.recording:
				rec.em.add(t)
				s.metrics.trackChanges.WithLabelValues(s.stream.Name).Inc()
				s.logger.Info("recording", "title", t.Title, "offset", t.OffsetString())
			case !rec.skippedFirst:
				// on-track start: the first announcement belongs to a track
				// already in progress.
				rec.skippedFirst = true
				s.logger.Info("skipping", "title", t.Title)
			default:
				rec.recording = true
				rec.bt.rebase(now)
				t.FilePos = 0
				t.Offset = 0
				rec.em.add(t)
				s.metrics.trackChanges.WithLabelValues(s.stream.Name).Inc()
				s.logger.Info("recording", "title", t.Title, "offset", t.OffsetString())
			}
		}
	}

	if rec.recording && len(chunk.Audio) > 0 {
		if rec.bt.bitrateKbps == 0 && rec.sniffBudget > 0 {
			// Server advertised no bitrate; try the MP3 frame header so
			// offsets can still be derived from byte counts.
			rec.sniffBudget--
			if kbps := mp3.SniffBitrate(chunk.Audio); kbps > 0 {
				rec.bt.setBitrate(kbps)
				s.logger.Debug("sniffed bitrate from frame header", "kbps", kbps)
			}
		}
		if _, err := rec.w.Write(chunk.Audio); err != nil {
			return false, fmt.Errorf("write audio: %w", err)
		}
		s.metrics.bytesWritten.WithLabelValues(s.stream.Name).Add(float64(len(chunk.Audio)))
	}

	return false, nil
}

// byteCountIEC renders a byte count in binary units for logs.
func byteCountIEC(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
