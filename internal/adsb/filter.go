package adsb

import (
	"strings"

	"github.com/skysift/cotbridge/internal/config"
)

// FilterSet is an immutable collection of inclusion/exclusion rules applied to
// observations before event construction. It is built once at startup and
// shared read-only across workers; a nil FilterSet keeps everything.
type FilterSet struct {
	allowICAO        map[string]struct{}
	denyICAO         map[string]struct{}
	callsignPrefixes []string
	altUpperFt       float64
	altLowerFt       float64
	bounds           *config.BoundsConfig
	radius           *config.RadiusConfig
}

// NewFilterSet builds a FilterSet from configuration. It returns nil when the
// configuration defines no rules, which callers treat as keep-all.
func NewFilterSet(cfg config.FiltersConfig) *FilterSet {
	if len(cfg.AllowICAO) == 0 && len(cfg.DenyICAO) == 0 &&
		len(cfg.CallsignPrefixes) == 0 &&
		cfg.AltUpperFt == 0 && cfg.AltLowerFt == 0 &&
		cfg.Bounds == nil && cfg.Radius == nil {
		return nil
	}

	fs := &FilterSet{
		altUpperFt: cfg.AltUpperFt,
		altLowerFt: cfg.AltLowerFt,
		bounds:     cfg.Bounds,
		radius:     cfg.Radius,
	}

	if len(cfg.AllowICAO) > 0 {
		fs.allowICAO = make(map[string]struct{}, len(cfg.AllowICAO))
		for _, hex := range cfg.AllowICAO {
			fs.allowICAO[normalizeHex(hex)] = struct{}{}
		}
	}
	if len(cfg.DenyICAO) > 0 {
		fs.denyICAO = make(map[string]struct{}, len(cfg.DenyICAO))
		for _, hex := range cfg.DenyICAO {
			fs.denyICAO[normalizeHex(hex)] = struct{}{}
		}
	}
	for _, prefix := range cfg.CallsignPrefixes {
		fs.callsignPrefixes = append(fs.callsignPrefixes, strings.ToUpper(strings.TrimSpace(prefix)))
	}

	return fs
}

// Keep decides whether an observation passes the filter set. It is
// side-effect-free and safe for concurrent use.
func (f *FilterSet) Keep(o *Observation) bool {
	if f == nil {
		return true
	}

	hex := normalizeHex(o.Hex)
	if _, denied := f.denyICAO[hex]; denied {
		return false
	}
	if f.allowICAO != nil {
		if _, allowed := f.allowICAO[hex]; !allowed {
			return false
		}
	}

	if len(f.callsignPrefixes) > 0 {
		callsign := strings.ToUpper(o.Callsign)
		matched := false
		for _, prefix := range f.callsignPrefixes {
			if strings.HasPrefix(callsign, prefix) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	// The altitude band only applies when the feed reported an altitude
	if o.HasAltitude {
		if f.altUpperFt != 0 && o.AltitudeFt > f.altUpperFt {
			return false
		}
		if f.altLowerFt != 0 && o.AltitudeFt < f.altLowerFt {
			return false
		}
	}

	if f.bounds != nil {
		if o.Lat < f.bounds.LatMin || o.Lat > f.bounds.LatMax ||
			o.Lon < f.bounds.LonMin || o.Lon > f.bounds.LonMax {
			return false
		}
	}

	if f.radius != nil {
		distNM := MetersToNM(Haversine(o.Lat, o.Lon, f.radius.Lat, f.radius.Lon))
		if distNM > f.radius.RadiusNM {
			return false
		}
	}

	return true
}
