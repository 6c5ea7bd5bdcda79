package shoutcast

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const userAgent = "iTunes/12.9.2 (Macintosh; OS X 10.14.3) AppleWebKit/606.4.5"

// Stream represents an open shoutcast stream.
type Stream struct {
	// The name of the server
	Name string

	// What category the server falls under
	Genre string

	// The description of the stream
	Description string

	// Homepage of the server
	URL string

	// ContentType reported by the server, e.g. audio/mpeg
	ContentType string

	// Bitrate of the server in kbit/s, 0 when not advertised
	Bitrate int

	// the URL the connection was opened against
	streamURL string

	// the underlying response body
	rc io.ReadCloser

	dec *Decoder
}

// Open establishes a connection to a remote server. Playlist files
// (.pls, .m3u) are resolved to stream URLs first. The returned stream is
// bound to ctx: cancelling it unblocks any in-flight socket read.
//
// A server that does not advertise icy-metaint yields a passthrough stream:
// Next returns audio chunks only and no metadata will ever be seen. That is
// a supported mode, not an error.
func Open(ctx context.Context, url string) (*Stream, error) {
	resolvedURL, err := resolvePlaylistURL(ctx, url)
	if err != nil {
		return nil, &StreamError{URL: url, Err: err}
	}
	url = resolvedURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &StreamError{URL: url, Err: err}
	}
	req.Header.Add("accept", "*/*")
	req.Header.Add("user-agent", userAgent)
	req.Header.Add("icy-metadata", "1")

	// Timeout for establishing the connection.
	// We don't want for the stream to timeout while we're reading it, but
	// we do want a timeout for establishing the connection to the server.
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{
		Dial:                  dialer.Dial,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	// No timeout on the client - we want to stream indefinitely
	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &StreamError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StreamError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var bitrate int
	if rawBitrate := resp.Header.Get("icy-br"); rawBitrate != "" {
		// A garbled bitrate header only degrades offset estimation, so it is
		// ignored rather than fatal.
		bitrate, _ = strconv.Atoi(rawBitrate)
	}

	// Absent or unparsable icy-metaint means passthrough mode.
	interval := 0
	if raw := resp.Header.Get("icy-metaint"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			interval = v
		}
	}

	s := &Stream{
		Name:        resp.Header.Get("icy-name"),
		Genre:       resp.Header.Get("icy-genre"),
		Description: resp.Header.Get("icy-description"),
		URL:         resp.Header.Get("icy-url"),
		ContentType: resp.Header.Get("content-type"),
		Bitrate:     bitrate,
		streamURL:   url,
		rc:          resp.Body,
		dec:         NewDecoder(resp.Body, interval),
	}

	return s, nil
}

// MetadataInterval returns the negotiated metadata interval in bytes;
// 0 means passthrough mode.
func (s *Stream) MetadataInterval() int { return s.dec.Interval() }

// Next returns the next decoded chunk. io.EOF marks a clean end of stream,
// *ProtocolError malformed framing; any other failure is a *StreamError.
func (s *Stream) Next() (Chunk, error) {
	chunk, err := s.dec.Next()
	if err == nil || err == io.EOF {
		return chunk, err
	}
	if _, ok := err.(*ProtocolError); ok {
		return chunk, err
	}
	return chunk, &StreamError{URL: s.streamURL, Err: err}
}

// Close closes the underlying connection.
func (s *Stream) Close() error {
	return s.rc.Close()
}
