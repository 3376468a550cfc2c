package modes

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/skysift/cotbridge/internal/adsb"
	"github.com/skysift/cotbridge/pkg/logger"
)

// Feed sub-formats the decoder understands
const (
	FormatRaw   = "raw"   // AVR-style hex lines: *8D4840D6...;
	FormatBeast = "beast" // Mode-S Beast binary framing
)

// ErrUnsupportedFormat is returned when no decoder exists for a feed
// sub-format. The orchestrator checks this before dialing anything.
var ErrUnsupportedFormat = errors.New("no decoder available for feed format")

// Supported reports whether a decoder exists for the given feed sub-format
func Supported(format string) bool {
	switch format {
	case FormatRaw, FormatBeast:
		return true
	}
	return false
}

// maxCPRPairAge is the longest an even/odd position frame pair may be apart
// and still be combined into a global position fix
const maxCPRPairAge = 10 * time.Second

// sixBitCharset is the ICAO Annex 10 six-bit callsign alphabet
const sixBitCharset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"

// Decoder turns raw Mode-S frames into observations. It keeps per-aircraft
// running state (callsign, velocity, CPR frame cache) and yields an
// observation snapshot once a frame updates an aircraft with a known
// position. It is owned by a single worker and not safe for concurrent use.
type Decoder struct {
	format string
	state  map[uint32]*aircraftState
	logger *logger.Logger
	now    func() time.Time
}

type aircraftState struct {
	callsign string
	category string
	altFt    float64
	hasAlt   bool
	speedKt  float64
	trackDeg float64
	hasVel   bool
	vrateFPM float64
	lat      float64
	lon      float64
	hasPos   bool
	even     *cprFrame
	odd      *cprFrame
}

// NewDecoder creates a decoder for the given feed sub-format
func NewDecoder(format string, logger *logger.Logger) (*Decoder, error) {
	if !Supported(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &Decoder{
		format: format,
		state:  make(map[uint32]*aircraftState),
		logger: logger.Named("modes-decoder"),
		now:    time.Now,
	}, nil
}

// Decode processes one raw frame. It returns (nil, nil) for frames that are
// valid but yield no decodable aircraft state, an observation when the frame
// updated an aircraft whose position is known, and an error for malformed
// frames. Errors are per-frame: the caller skips the frame and continues.
func (d *Decoder) Decode(frame []byte) (*adsb.Observation, error) {
	msg, err := d.payload(frame)
	if err != nil {
		return nil, err
	}
	if len(msg) != 14 {
		// Short surveillance replies carry no extended squitter state
		return nil, nil
	}

	df := msg[0] >> 3
	if df != 17 && df != 18 {
		return nil, nil
	}

	icao := uint32(msg[1])<<16 | uint32(msg[2])<<8 | uint32(msg[3])
	st, ok := d.state[icao]
	if !ok {
		st = &aircraftState{}
		d.state[icao] = st
	}

	tc := msg[4] >> 3
	updated := false

	switch {
	case tc >= 1 && tc <= 4:
		updated = st.decodeIdentification(msg)
	case tc >= 9 && tc <= 18:
		updated = st.decodePosition(msg, d.now())
	case tc == 19:
		updated = st.decodeVelocity(msg)
	}

	if !updated || !st.hasPos {
		return nil, nil
	}

	return st.observation(icao, d.now()), nil
}

// payload extracts the binary Mode-S message from a raw frame according to
// the feed sub-format
func (d *Decoder) payload(frame []byte) ([]byte, error) {
	switch d.format {
	case FormatRaw:
		s := strings.TrimSpace(string(frame))
		s = strings.TrimPrefix(s, "*")
		s = strings.TrimSuffix(s, ";")
		msg, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("malformed raw frame %q: %w", s, err)
		}
		if len(msg) != 7 && len(msg) != 14 {
			return nil, fmt.Errorf("unexpected raw frame length %d", len(msg))
		}
		return msg, nil

	case FormatBeast:
		// Frame layout: 0x1A, type, 6 byte MLAT counter, signal, message
		if len(frame) < 2 || frame[0] != 0x1A {
			return nil, fmt.Errorf("malformed beast frame: missing escape prefix")
		}
		var msgLen int
		switch frame[1] {
		case 0x31:
			// Mode-A/C replies carry no state we can use
			return nil, nil
		case 0x32:
			msgLen = 7
		case 0x33:
			msgLen = 14
		default:
			return nil, fmt.Errorf("unknown beast frame type 0x%02x", frame[1])
		}
		if len(frame) < 9+msgLen {
			return nil, fmt.Errorf("truncated beast frame: got %d bytes, want %d", len(frame), 9+msgLen)
		}
		return frame[9 : 9+msgLen], nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, d.format)
}

// decodeIdentification handles TC 1-4 aircraft identification messages
func (s *aircraftState) decodeIdentification(msg []byte) bool {
	tc := msg[4] >> 3
	ca := msg[4] & 0x07

	// TC 4 is category set A, TC 3 set B, TC 2 set C, TC 1 set D
	var set string
	switch tc {
	case 4:
		set = "A"
	case 3:
		set = "B"
	case 2:
		set = "C"
	case 1:
		set = "D"
	}
	s.category = fmt.Sprintf("%s%d", set, ca)

	var callsign strings.Builder
	data := msg[5:11]
	for i := 0; i < 8; i++ {
		idx := extractBits(data, i*6, 6)
		callsign.WriteByte(sixBitCharset[idx])
	}
	s.callsign = strings.TrimRight(strings.TrimRight(callsign.String(), " "), "#")
	return true
}

// decodePosition handles TC 9-18 airborne position messages. It returns true
// only when an even/odd CPR pair produced a new position fix.
func (s *aircraftState) decodePosition(msg []byte, at time.Time) bool {
	// 12-bit altitude field with Q-bit
	altBits := uint32(msg[5])<<4 | uint32(msg[6])>>4
	if altBits&0x10 != 0 {
		n := (altBits&0xFE0)>>1 | altBits&0x0F
		s.altFt = float64(n)*25 - 1000
		s.hasAlt = true
	}

	frame := &cprFrame{
		latCPR: float64(uint32(msg[6]&0x03)<<15|uint32(msg[7])<<7|uint32(msg[8])>>1) / 131072,
		lonCPR: float64(uint32(msg[8]&0x01)<<16|uint32(msg[9])<<8|uint32(msg[10])) / 131072,
		at:     at,
	}

	odd := (msg[6]>>2)&0x01 == 1
	if odd {
		s.odd = frame
	} else {
		s.even = frame
	}

	if s.even == nil || s.odd == nil {
		return false
	}
	if s.even.at.Sub(s.odd.at) > maxCPRPairAge || s.odd.at.Sub(s.even.at) > maxCPRPairAge {
		return false
	}

	lat, lon, ok := globalPosition(s.even, s.odd, odd)
	if !ok {
		return false
	}

	s.lat = lat
	s.lon = lon
	s.hasPos = true
	return true
}

// decodeVelocity handles TC 19 airborne velocity messages (ground speed
// subtypes 1 and 2)
func (s *aircraftState) decodeVelocity(msg []byte) bool {
	sub := msg[4] & 0x07
	if sub != 1 && sub != 2 {
		// Airspeed subtypes 3 and 4 are rare and carry no ground speed
		return false
	}

	updated := false

	vEW := int(msg[5]&0x03)<<8 | int(msg[6])
	vNS := int(msg[7]&0x7F)<<3 | int(msg[8]>>5)
	if vEW != 0 && vNS != 0 {
		vx := float64(vEW - 1)
		if (msg[5]>>2)&0x01 == 1 {
			vx = -vx
		}
		vy := float64(vNS - 1)
		if (msg[7]>>7)&0x01 == 1 {
			vy = -vy
		}
		if sub == 2 {
			// Supersonic subtype: 4 kt units
			vx *= 4
			vy *= 4
		}

		s.speedKt = math.Hypot(vx, vy)
		track := math.Atan2(vx, vy) * 180 / math.Pi
		if track < 0 {
			track += 360
		}
		s.trackDeg = track
		s.hasVel = true
		updated = true
	}

	vr := int(msg[8]&0x07)<<6 | int(msg[9]>>2)
	if vr != 0 {
		rate := float64(vr-1) * 64
		if (msg[8]>>3)&0x01 == 1 {
			rate = -rate
		}
		s.vrateFPM = rate
		updated = true
	}

	return updated
}

// observation snapshots the accumulated state into an Observation
func (s *aircraftState) observation(icao uint32, now time.Time) *adsb.Observation {
	return &adsb.Observation{
		Hex:         fmt.Sprintf("%06X", icao),
		Callsign:    s.callsign,
		Category:    s.category,
		Lat:         s.lat,
		Lon:         s.lon,
		HasPosition: true,
		AltitudeFt:  s.altFt,
		HasAltitude: s.hasAlt,
		TrackDeg:    s.trackDeg,
		HasTrack:    s.hasVel,
		SpeedKt:     s.speedKt,
		HasSpeed:    s.hasVel,
		VertRateFPM: s.vrateFPM,
		SeenAt:      now,
	}
}

// extractBits reads a big-endian bit field of the given width from data
func extractBits(data []byte, start, width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		pos := start + i
		bit := (data[pos/8] >> (7 - pos%8)) & 0x01
		v = v<<1 | uint32(bit)
	}
	return v
}
