package shoutcast

import "fmt"

// ProtocolError indicates malformed ICY metadata framing, such as a declared
// metadata length that cannot be read in full before the stream ends.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "shoutcast: protocol error: " + e.Reason
}

// StreamError indicates a transport-level failure: connection refused or
// reset, read timeout, or a non-2xx response from the server.
type StreamError struct {
	URL string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("shoutcast: stream %s: %v", e.URL, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
