package modes

import (
	"math"
	"time"
)

// cprFrame is one compact position report, normalized to [0,1)
type cprFrame struct {
	latCPR float64
	lonCPR float64
	at     time.Time
}

// globalPosition combines an even and an odd CPR frame into an unambiguous
// airborne position. latestOdd selects which frame's zone the final position
// is computed in. Returns ok=false when the two frames straddle a longitude
// zone boundary and cannot be combined.
func globalPosition(even, odd *cprFrame, latestOdd bool) (lat, lon float64, ok bool) {
	const dLatEven = 360.0 / 60
	const dLatOdd = 360.0 / 59

	j := math.Floor(59*even.latCPR - 60*odd.latCPR + 0.5)

	latEven := dLatEven * (cprMod(j, 60) + even.latCPR)
	latOdd := dLatOdd * (cprMod(j, 59) + odd.latCPR)
	if latEven >= 270 {
		latEven -= 360
	}
	if latOdd >= 270 {
		latOdd -= 360
	}

	// Both frames must fall in the same longitude zone
	if nl(latEven) != nl(latOdd) {
		return 0, 0, false
	}

	if latestOdd {
		lat = latOdd
	} else {
		lat = latEven
	}

	nlv := nl(lat)
	m := math.Floor(even.lonCPR*float64(nlv-1) - odd.lonCPR*float64(nlv) + 0.5)

	var ni int
	var lonCPR float64
	if latestOdd {
		ni = nlv - 1
		lonCPR = odd.lonCPR
	} else {
		ni = nlv
		lonCPR = even.lonCPR
	}
	if ni < 1 {
		ni = 1
	}

	dLon := 360.0 / float64(ni)
	lon = dLon * (cprMod(m, float64(ni)) + lonCPR)
	if lon >= 180 {
		lon -= 360
	}

	return lat, lon, true
}

// nl is the CPR longitude zone count for a latitude
func nl(lat float64) int {
	if lat == 0 {
		return 59
	}
	abs := math.Abs(lat)
	if abs == 87 {
		return 2
	}
	if abs > 87 {
		return 1
	}
	a := 1 - math.Cos(math.Pi/30)
	b := math.Pow(math.Cos(math.Pi/180*abs), 2)
	return int(math.Floor(2 * math.Pi / math.Acos(1-a/b)))
}

// cprMod is a modulo that is always positive
func cprMod(a, b float64) float64 {
	return a - b*math.Floor(a/b)
}
