package shoutcast

import (
	"regexp"
	"strings"
)

// Metadata is a decoded ICY metadata announcement. Servers send blocks of the
// form "StreamTitle='Artist - Song';StreamUrl='http://...cover.jpg';" padded
// with NUL bytes to a multiple of 16.
type Metadata struct {
	// StreamTitle is the announced track title, usually "Artist - Title".
	StreamTitle string

	// StreamURL is the announced URL, which some stations use for cover art.
	StreamURL string
}

// Single-quoted pairs are the Shoutcast standard; some servers use double
// quotes instead.
var (
	metaPairSingle = regexp.MustCompile(`(\w+)='([^']*)'`)
	metaPairDouble = regexp.MustCompile(`(\w+)="([^"]*)"`)
)

// NewMetadata parses a raw metadata block. Unknown keys are dropped and a
// block without any parsable pair yields empty fields, never an error;
// metadata quality issues must not interrupt recording.
func NewMetadata(block []byte) *Metadata {
	raw := strings.TrimRight(string(block), "\x00")

	pairs := metaPairSingle.FindAllStringSubmatch(raw, -1)
	if len(pairs) == 0 {
		pairs = metaPairDouble.FindAllStringSubmatch(raw, -1)
	}

	m := &Metadata{}
	for _, kv := range pairs {
		switch strings.ToLower(kv[1]) {
		case "streamtitle":
			m.StreamTitle = strings.TrimSpace(kv[2])
		case "streamurl":
			m.StreamURL = strings.TrimSpace(kv[2])
		}
	}
	return m
}

// Empty reports whether no field carries a value.
func (m *Metadata) Empty() bool {
	return m == nil || (m.StreamTitle == "" && m.StreamURL == "")
}

// Equals compares two metadata announcements field by field.
func (m *Metadata) Equals(other *Metadata) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.StreamTitle == other.StreamTitle && m.StreamURL == other.StreamURL
}
