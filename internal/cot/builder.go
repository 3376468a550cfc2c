package cot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/skysift/cotbridge/internal/adsb"
	"github.com/skysift/cotbridge/internal/config"
)

// Unit conversions for CoT points and tracks
const (
	knotsToMetersPerSec = 0.514444
	feetToMeters        = 0.3048
)

// Builder turns observations into CoT events. It is immutable after
// construction and safe for concurrent use.
type Builder struct {
	stale     time.Duration
	uidKey    string
	hostID    string
	accessTag string
}

// NewBuilder creates an event builder from the CoT configuration
func NewBuilder(cfg config.CoTConfig) *Builder {
	uidKey := cfg.UIDKey
	if uidKey == "" {
		uidKey = "ICAO"
	}
	return &Builder{
		stale:     cfg.Stale(),
		uidKey:    uidKey,
		hostID:    cfg.HostID,
		accessTag: cfg.Access,
	}
}

// Build produces a CoT event for an observation. The event UID is a
// deterministic function of the aircraft identifier only, so repeated
// observations of the same aircraft update rather than duplicate the entity
// at the destination. Stale time is the observation time plus the configured
// staleness window.
func (b *Builder) Build(o *adsb.Observation) (*Event, error) {
	if !o.HasPosition {
		return nil, fmt.Errorf("observation for %s has no position", o.Hex)
	}

	reg := o.Registration
	if reg == "" {
		// Feeds frequently omit registration; US and Canadian hexes map to it
		if tail, err := adsb.IcaoToTailNumber(o.Hex); err == nil {
			reg = tail
		}
	}

	uid := b.uid(o, reg)
	if uid == "" {
		return nil, fmt.Errorf("observation has no usable identifier")
	}

	callsign := o.Callsign
	if callsign == "" {
		callsign = reg
	}
	if callsign == "" {
		callsign = o.Hex
	}

	course := Unknown
	if o.HasTrack {
		course = formatFloat(o.TrackDeg)
	}
	speed := Unknown
	if o.HasSpeed {
		speed = formatFloat(o.SpeedKt * knotsToMetersPerSec)
	}
	hae := Unknown
	if o.HasAltitude {
		hae = formatFloat(o.AltitudeFt * feetToMeters)
	}

	detail := &Detail{
		Remarks: &Remarks{Text: b.remarks(o, reg)},
		Contact: &Contact{Callsign: callsign},
		Track: &Track{
			Course: course,
			Speed:  speed,
		},
	}

	return &Event{
		Version: "2.0",
		UID:     uid,
		Type:    cotType(o.Category),
		How:     "m-g",
		Time:    CotTime(o.SeenAt),
		Start:   CotTime(o.SeenAt),
		Stale:   CotTime(o.SeenAt.Add(b.stale)),
		Access:  b.accessTag,
		Point: Point{
			Lat: formatFloat(o.Lat),
			Lon: formatFloat(o.Lon),
			HAE: hae,
			CE:  Unknown,
			LE:  Unknown,
		},
		Detail: detail,
	}, nil
}

// uid derives the stable event identifier according to the configured UID key
func (b *Builder) uid(o *adsb.Observation, reg string) string {
	switch b.uidKey {
	case "REG":
		if reg != "" {
			return "REG-" + reg
		}
	case "FLIGHT":
		if o.Callsign != "" {
			return "FLIGHT-" + o.Callsign
		}
	}
	if o.Hex != "" {
		return "ICAO-" + strings.ToUpper(o.Hex)
	}
	if o.Callsign != "" {
		return "FLIGHT-" + o.Callsign
	}
	return ""
}

// remarks assembles the human-readable event summary
func (b *Builder) remarks(o *adsb.Observation, reg string) string {
	fields := make([]string, 0, 6)
	if o.Callsign != "" {
		fields = append(fields, o.Callsign)
	}
	if reg != "" {
		fields = append(fields, reg)
	}
	if o.Squawk != "" {
		fields = append(fields, "Squawk: "+o.Squawk)
	}
	if o.Hex != "" {
		fields = append(fields, o.Hex)
	}
	if o.Category != "" {
		fields = append(fields, "Cat.: "+o.Category)
	}
	if o.Type != "" {
		fields = append(fields, "Type: "+o.Type)
	}
	if b.hostID != "" {
		fields = append(fields, b.hostID)
	}
	return strings.Join(fields, " ")
}

// cotType maps an ADS-B emitter category to a CoT type string. Unknown
// categories fall back to neutral fixed-wing.
func cotType(category string) string {
	if category == "A7" {
		return "a-n-A-C-H" // rotorcraft
	}
	return "a-n-A-C-F"
}

// formatFloat renders coordinates and speeds the way CoT consumers expect
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
