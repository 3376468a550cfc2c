package adsb

import (
	"github.com/skysift/cotbridge/pkg/logger"
)

// ChangeDetector tracks aircraft state between polling cycles so the poll
// worker can suppress events for aircraft that did not move. It is owned by a
// single worker and is not safe for concurrent use.
type ChangeDetector struct {
	previous map[string]*Observation
	logger   *logger.Logger
}

// NewChangeDetector creates a new change detector
func NewChangeDetector(logger *logger.Logger) *ChangeDetector {
	return &ChangeDetector{
		previous: make(map[string]*Observation),
		logger:   logger.Named("change-detector"),
	}
}

// Changed returns the observations that are new or differ from the previous
// cycle, in input order, and replaces the tracked state with the current cycle.
func (cd *ChangeDetector) Changed(current []*Observation) []*Observation {
	changed := make([]*Observation, 0, len(current))
	currentMap := make(map[string]*Observation, len(current))

	for _, obs := range current {
		currentMap[obs.Hex] = obs

		prev, seen := cd.previous[obs.Hex]
		if !seen || cd.differs(prev, obs) {
			changed = append(changed, obs)
		}
	}

	if dropped := len(cd.previous) - len(currentMap); dropped > 0 {
		cd.logger.Debug("Aircraft left the feed", logger.Int("count", dropped))
	}

	cd.previous = currentMap
	return changed
}

// differs compares two observations of the same aircraft, ignoring the
// observation timestamp so an unchanged aircraft stays quiet across cycles
func (cd *ChangeDetector) differs(prev, curr *Observation) bool {
	if prev.Lat != curr.Lat || prev.Lon != curr.Lon {
		return true
	}
	if prev.AltitudeFt != curr.AltitudeFt {
		return true
	}
	if prev.TrackDeg != curr.TrackDeg {
		return true
	}
	if prev.SpeedKt != curr.SpeedKt {
		return true
	}
	if prev.VertRateFPM != curr.VertRateFPM {
		return true
	}
	if prev.Callsign != curr.Callsign {
		return true
	}
	if prev.Squawk != curr.Squawk {
		return true
	}
	if prev.OnGround != curr.OnGround {
		return true
	}
	return false
}
