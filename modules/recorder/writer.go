package recorder

import (
	"errors"
	"os"
)

// minWriteBufSize and maxWriteBufSize clamp the configured write buffer to
// avoid tiny writes (no benefit) or very large buffers (memory and latency).
const (
	minWriteBufSize = 32 * 1024       // 32 KiB
	maxWriteBufSize = 4 * 1024 * 1024 // 4 MiB
)

// fileWriter is the sole owner of a session's audio file. It accepts audio
// chunks in arrival order, batches them in memory to reduce write frequency,
// and counts every accepted byte. Close flushes, syncs and closes, so the
// file holds exactly the accepted bytes on every exit path.
type fileWriter struct {
	f       *os.File
	path    string
	buf     []byte
	limit   int
	written int64
}

// newFileWriter creates (or truncates) the audio file at path. Failures
// here are surfaced before any network connection is attempted.
func newFileWriter(path string, bufSize int) (*fileWriter, error) {
	if bufSize < minWriteBufSize {
		bufSize = minWriteBufSize
	}
	if bufSize > maxWriteBufSize {
		bufSize = maxWriteBufSize
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileWriter{
		f:     f,
		path:  path,
		buf:   make([]byte, 0, bufSize),
		limit: bufSize,
	}, nil
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	w.written += int64(len(p))
	// Compare against the configured threshold, not cap: append grows the
	// slice past its capacity whenever a chunk straddles the boundary.
	if len(w.buf) >= w.limit {
		if err := w.flush(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Written returns the total bytes accepted, including any still buffered.
func (w *fileWriter) Written() int64 { return w.written }

// Path returns the audio file path.
func (w *fileWriter) Path() string { return w.path }

func (w *fileWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := w.f.Write(w.buf); err != nil {
		return err
	}
	w.buf = w.buf[:0]
	return nil
}

// Close flushes remaining buffered data, syncs and closes the file.
func (w *fileWriter) Close() error {
	flushErr := w.flush()
	syncErr := w.f.Sync()
	closeErr := w.f.Close()
	return errors.Join(flushErr, syncErr, closeErr)
}

// Remove deletes the audio file; used when a session recorded nothing.
func (w *fileWriter) Remove() error {
	return os.Remove(w.path)
}
