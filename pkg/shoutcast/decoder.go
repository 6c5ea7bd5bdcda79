package shoutcast

import (
	"fmt"
	"io"
)

// Chunk is one decoded cycle of the stream: a run of audio bytes and the
// metadata block (if any) that followed it.
type Chunk struct {
	// Audio holds exactly the interval's worth of audio bytes, except for the
	// final chunk of a stream, which may be shorter.
	Audio []byte

	// Meta is non-nil only when the cycle carried a non-empty metadata block.
	Meta *Metadata
}

// metaLengthUnit is the granularity of the metadata length byte: the byte
// declares length/16, rounded up, with NUL padding.
const metaLengthUnit = 16

// passthroughChunkSize is the audio chunk size used when the server
// advertises no metadata interval.
const passthroughChunkSize = 8192

// Decoder splits a raw ICY byte stream into audio chunks and metadata
// blocks. It is a pure cursor over the reader and performs no network I/O of
// its own; cancellation and timeouts belong to whoever owns the reader.
//
// The concatenation of all Audio fields returned by Next is exactly the
// audio byte stream: no metadata byte leaks into the audio and no audio byte
// is dropped or duplicated.
type Decoder struct {
	r        io.Reader
	interval int

	// pending defers an error until after a final partial chunk has been
	// delivered, so the caller never loses bytes that arrived before EOF.
	pending error
}

// NewDecoder returns a decoder for a stream with the given metadata
// interval. An interval of 0 means passthrough mode: the stream carries no
// in-band metadata and Next only ever returns audio.
func NewDecoder(r io.Reader, interval int) *Decoder {
	return &Decoder{r: r, interval: interval}
}

// Interval returns the negotiated metadata interval in bytes.
func (d *Decoder) Interval() int { return d.interval }

// decoder cursor states, advanced in order within one cycle
const (
	stateAudio = iota
	stateMetaLength
	stateMetaBody
)

// Next returns the next chunk. It returns io.EOF once the stream is
// exhausted, and a *ProtocolError when a metadata block is truncated.
func (d *Decoder) Next() (Chunk, error) {
	if d.pending != nil {
		err := d.pending
		d.pending = nil
		return Chunk{}, err
	}

	if d.interval <= 0 {
		return d.nextPassthrough()
	}

	var (
		chunk   Chunk
		metaLen int
		state   = stateAudio
	)
	for {
		switch state {
		case stateAudio:
			audio := make([]byte, d.interval)
			n, err := io.ReadFull(d.r, audio)
			if n == 0 {
				return Chunk{}, normalizeEOF(err)
			}
			chunk.Audio = audio[:n]
			if err != nil {
				// Stream ended mid-block; hand back what arrived.
				d.pending = normalizeEOF(err)
				return chunk, nil
			}
			state = stateMetaLength

		case stateMetaLength:
			var lb [1]byte
			if _, err := io.ReadFull(d.r, lb[:]); err != nil {
				d.pending = normalizeEOF(err)
				return chunk, nil
			}
			metaLen = int(lb[0]) * metaLengthUnit
			if metaLen == 0 {
				// No metadata this cycle; the expected common case.
				return chunk, nil
			}
			state = stateMetaBody

		case stateMetaBody:
			body := make([]byte, metaLen)
			if n, err := io.ReadFull(d.r, body); err != nil {
				// The length byte promised more than the stream delivered.
				d.pending = &ProtocolError{
					Reason: fmt.Sprintf("metadata block truncated: declared %d bytes, read %d", metaLen, n),
				}
				return chunk, nil
			}
			if m := NewMetadata(body); !m.Empty() {
				chunk.Meta = m
			}
			return chunk, nil
		}
	}
}

func (d *Decoder) nextPassthrough() (Chunk, error) {
	buf := make([]byte, passthroughChunkSize)
	n, err := io.ReadFull(d.r, buf)
	if n == 0 {
		return Chunk{}, normalizeEOF(err)
	}
	if err != nil {
		d.pending = normalizeEOF(err)
	}
	return Chunk{Audio: buf[:n]}, nil
}

// normalizeEOF maps a short final read to a clean end of stream.
func normalizeEOF(err error) error {
	if err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	return err
}
