package modes

import (
	"math"
	"testing"
	"time"
)

func TestNL(t *testing.T) {
	tests := []struct {
		lat  float64
		want int
	}{
		{lat: 0, want: 59},
		{lat: 10.47047130, want: 59},
		{lat: 52.2657, want: 36},
		{lat: -52.2657, want: 36},
		{lat: 87, want: 2},
		{lat: 89, want: 1},
	}
	for _, tt := range tests {
		if got := nl(tt.lat); got != tt.want {
			t.Errorf("nl(%f) = %d, want %d", tt.lat, got, tt.want)
		}
	}
}

func TestGlobalPositionLatestEven(t *testing.T) {
	// CPR values from the 40621D even/odd frame pair
	now := time.Now()
	even := &cprFrame{latCPR: 93000.0 / 131072, lonCPR: 51372.0 / 131072, at: now}
	odd := &cprFrame{latCPR: 74158.0 / 131072, lonCPR: 50194.0 / 131072, at: now}

	lat, lon, ok := globalPosition(even, odd, false)
	if !ok {
		t.Fatal("expected a fix")
	}
	if math.Abs(lat-52.25720) > 0.001 {
		t.Errorf("expected latitude ~52.25720, got %f", lat)
	}
	if math.Abs(lon-3.91937) > 0.001 {
		t.Errorf("expected longitude ~3.91937, got %f", lon)
	}
}

func TestGlobalPositionZoneMismatch(t *testing.T) {
	now := time.Now()
	// This pair resolves to ~10.45 (even) and ~10.49 (odd), which straddle
	// the 59-to-58 longitude zone boundary at 10.47
	even := &cprFrame{latCPR: 0.74167, lonCPR: 0.2, at: now}
	odd := &cprFrame{latCPR: 0.71919, lonCPR: 0.3, at: now}

	if _, _, ok := globalPosition(even, odd, true); ok {
		t.Error("expected zone mismatch to be rejected")
	}
}

func TestCprMod(t *testing.T) {
	if got := cprMod(-5, 60); got != 55 {
		t.Errorf("cprMod(-5, 60) = %f, want 55", got)
	}
	if got := cprMod(125, 60); got != 5 {
		t.Errorf("cprMod(125, 60) = %f, want 5", got)
	}
}
