package adsb

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// RawAircraftData is the dump1090-style aircraft.json snapshot
type RawAircraftData struct {
	Now      float64      `json:"now"`
	Messages int          `json:"messages"`
	Aircraft []ADSBTarget `json:"aircraft"`
}

// ADSBTarget is one aircraft record as reported by the feed. Pointer and
// FlexFloat fields distinguish absent values from genuine zeroes (a due-north
// track, a stationary ground speed).
type ADSBTarget struct {
	Hex          string    `json:"hex"`
	Flight       string    `json:"flight"`
	Registration string    `json:"r"`
	Type         string    `json:"t"`
	Category     string    `json:"category"`
	Squawk       string    `json:"squawk"`
	Lat          *float64  `json:"lat"`
	Lon          *float64  `json:"lon"`
	AltBaro      FlexFloat `json:"alt_baro"`
	AltGeom      FlexFloat `json:"alt_geom"`
	GS           *float64  `json:"gs"`
	Track        *float64  `json:"track"`
	BaroRate     float64   `json:"baro_rate"`
	Seen         float64   `json:"seen"`
	SeenPos      float64   `json:"seen_pos"`
}

// FlexFloat tolerates feeds that report numeric fields as strings, most
// notably alt_baro = "ground" for aircraft on the surface. Valid is set only
// when a numeric value was actually reported.
type FlexFloat struct {
	Value    float64
	Valid    bool
	OnGround bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "ground" {
			f.OnGround = true
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Unparseable string values are treated as absent, not fatal
			return nil
		}
		f.Value = v
		f.Valid = true
		return nil
	}

	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Observation is one aircraft's decoded state at a point in time. It is
// transient: produced by decode, consumed once by the filter and the event
// builder, then discarded.
type Observation struct {
	Hex          string
	Callsign     string
	Registration string
	Type         string
	Category     string
	Squawk       string
	Lat          float64
	Lon          float64
	HasPosition  bool
	AltitudeFt   float64
	HasAltitude  bool
	TrackDeg     float64
	HasTrack     bool
	SpeedKt      float64
	HasSpeed     bool
	VertRateFPM  float64
	OnGround     bool
	SeenAt       time.Time
}

// Observation converts a feed record into an Observation. Records without a
// position are not usable downstream and return nil.
func (t *ADSBTarget) Observation(now time.Time) *Observation {
	if t.Hex == "" || t.Lat == nil || t.Lon == nil {
		return nil
	}

	// Geometric altitude wins when both are reported
	var alt float64
	hasAlt := false
	switch {
	case t.AltGeom.Valid:
		alt = t.AltGeom.Value
		hasAlt = true
	case t.AltBaro.Valid:
		alt = t.AltBaro.Value
		hasAlt = true
	}

	o := &Observation{
		Hex:          normalizeHex(t.Hex),
		Callsign:     CleanFlightName(t.Flight),
		Registration: CleanFlightName(t.Registration),
		Type:         CleanFlightName(t.Type),
		Category:     CleanFlightName(t.Category),
		Squawk:       CleanFlightName(t.Squawk),
		Lat:          *t.Lat,
		Lon:          *t.Lon,
		HasPosition:  true,
		AltitudeFt:   alt,
		HasAltitude:  hasAlt,
		VertRateFPM:  t.BaroRate,
		OnGround:     t.AltBaro.OnGround,
		SeenAt:       now,
	}
	if t.Track != nil {
		o.TrackDeg = *t.Track
		o.HasTrack = true
	}
	if t.GS != nil {
		o.SpeedKt = *t.GS
		o.HasSpeed = true
	}
	return o
}
