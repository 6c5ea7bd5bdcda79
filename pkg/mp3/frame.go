// Package mp3 provides minimal MPEG audio frame inspection: locating frame
// sync and decoding the header fields needed to estimate a stream's bitrate
// when the server does not advertise one.
package mp3

import "fmt"

// Header holds the fields of an MPEG1 Layer III frame header that matter
// for recording: everything needed to convert byte counts into durations.
type Header struct {
	Bitrate    int // bits per second
	SampleRate int // Hz
	Padding    int
	FrameSize  int // bytes, including the header
}

// Bitrate lookup table (MPEG1, Layer III)
var bitrateTable = map[int]int{
	0x1: 32000,
	0x2: 40000,
	0x3: 48000,
	0x4: 56000,
	0x5: 64000,
	0x6: 80000,
	0x7: 96000,
	0x8: 112000,
	0x9: 128000,
	0xa: 160000,
	0xb: 192000,
	0xc: 224000,
	0xd: 256000,
	0xe: 320000,
}

// Sample rate lookup table (MPEG1)
var sampleRateTable = map[int]int{
	0x0: 44100,
	0x1: 48000,
	0x2: 32000,
}

// FindSync returns the offset of the first valid MPEG frame sync word
// (11 set bits: 0xFF followed by 0xE0 in the high bits), or -1.
func FindSync(data []byte) int {
	for i := 0; i < len(data)-1; i++ {
		if data[i] == 0xFF && (data[i+1]&0xE0) == 0xE0 {
			return i
		}
	}
	return -1
}

// ParseHeader decodes the frame header at the start of frameData.
func ParseHeader(frameData []byte) (Header, error) {
	if len(frameData) < 4 {
		return Header{}, fmt.Errorf("frame too short")
	}

	if frameData[0] != 0xFF || (frameData[1]&0xE0) != 0xE0 {
		return Header{}, fmt.Errorf("invalid frame sync")
	}

	bitrateIndex := int((frameData[2] >> 4) & 0x0F)
	bitrate, ok := bitrateTable[bitrateIndex]
	if !ok {
		return Header{}, fmt.Errorf("invalid bitrate index %#x", bitrateIndex)
	}

	sampleRateIndex := int((frameData[2] >> 2) & 0x03)
	sampleRate, ok := sampleRateTable[sampleRateIndex]
	if !ok {
		return Header{}, fmt.Errorf("invalid sample rate index %#x", sampleRateIndex)
	}

	padding := int((frameData[2] >> 1) & 0x01)

	// Frame size = (144 * bitrate) / sample rate + padding
	frameSize := (144*bitrate)/sampleRate + padding

	return Header{
		Bitrate:    bitrate,
		SampleRate: sampleRate,
		Padding:    padding,
		FrameSize:  frameSize,
	}, nil
}

// SniffBitrate scans data for an MPEG frame header and returns its bitrate
// in kbit/s, or 0 when no valid header is found. Streams commonly start
// mid-frame, so scanning continues past false sync words.
func SniffBitrate(data []byte) int {
	pos := 0
	for {
		off := FindSync(data[pos:])
		if off < 0 {
			return 0
		}
		pos += off
		h, err := ParseHeader(data[pos:])
		if err == nil {
			return h.Bitrate / 1000
		}
		pos++
		if pos >= len(data)-1 {
			return 0
		}
	}
}
