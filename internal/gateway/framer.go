package gateway

import (
	"bytes"
	"fmt"

	"github.com/skysift/cotbridge/internal/modes"
)

// framer splits a byte stream into discrete raw frames. Implementations
// carry partial-frame state across calls, so the emitted frame sequence is
// independent of how the stream is split across socket reads.
type framer interface {
	Feed(data []byte) [][]byte
}

// newFramer selects the framing rule for a feed sub-format
func newFramer(format string) (framer, error) {
	switch format {
	case modes.FormatRaw:
		return &rawFramer{}, nil
	case modes.FormatBeast:
		return &beastFramer{}, nil
	}
	return nil, fmt.Errorf("no framing rule for feed format %q", format)
}

// rawFramer splits AVR-style feeds: hex frames like *8D4840D6...; each
// terminated by a semicolon, optionally followed by line endings
type rawFramer struct {
	buf []byte
}

// Feed appends stream bytes and returns any frames completed by them
func (f *rawFramer) Feed(data []byte) [][]byte {
	f.buf = append(f.buf, data...)

	var frames [][]byte
	for {
		end := bytes.IndexByte(f.buf, ';')
		if end < 0 {
			break
		}
		chunk := f.buf[:end+1]
		f.buf = append([]byte(nil), f.buf[end+1:]...)

		// Discard line endings and noise before the frame marker
		if start := bytes.IndexByte(chunk, '*'); start >= 0 {
			frames = append(frames, append([]byte(nil), chunk[start:]...))
		}
	}
	return frames
}

// escByte starts every Beast frame and escapes itself within frame bodies
const escByte = 0x1A

// beastFramer splits Mode-S Beast binary feeds. Frames are
// <0x1A><type><6 byte MLAT counter><signal><message>, with 0x1A bytes in the
// body doubled. Frame length follows from the type byte.
type beastFramer struct {
	buf []byte
	esc bool
}

// Feed appends stream bytes and returns any frames completed by them
func (f *beastFramer) Feed(data []byte) [][]byte {
	var frames [][]byte

	for _, b := range data {
		if f.esc {
			f.esc = false
			if b == escByte {
				// Doubled escape: literal 0x1A inside the frame body
				if frame := f.push(escByte); frame != nil {
					frames = append(frames, frame)
				}
				continue
			}
			// Unescaped 0x1A starts a frame; b is the type byte
			if beastFrameLen(b) > 0 {
				f.buf = append(f.buf[:0], escByte, b)
			} else {
				f.buf = f.buf[:0]
			}
			continue
		}

		if b == escByte {
			f.esc = true
			continue
		}

		if frame := f.push(b); frame != nil {
			frames = append(frames, frame)
		}
	}

	return frames
}

// push appends one unescaped body byte to the current frame and returns the
// frame when it reaches its expected length. Bytes outside a frame are noise
// and are dropped.
func (f *beastFramer) push(b byte) []byte {
	if len(f.buf) < 2 {
		return nil
	}
	f.buf = append(f.buf, b)
	if len(f.buf) < beastFrameLen(f.buf[1]) {
		return nil
	}
	frame := append([]byte(nil), f.buf...)
	f.buf = f.buf[:0]
	return frame
}

// beastFrameLen returns the total frame length for a type byte, or -1 for
// unknown types
func beastFrameLen(frameType byte) int {
	// escape + type + 6 byte MLAT counter + signal + message
	switch frameType {
	case 0x31: // Mode-A/C
		return 9 + 2
	case 0x32: // Mode-S short
		return 9 + 7
	case 0x33: // Mode-S long
		return 9 + 14
	}
	return -1
}
