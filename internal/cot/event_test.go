package cot

import (
	"strings"
	"testing"
	"time"
)

func TestMarshalEvent(t *testing.T) {
	event := &Event{
		Version: "2.0",
		UID:     "ICAO-ABC123",
		Type:    "a-n-A-C-F",
		How:     "m-g",
		Time:    "2024-06-01T12:00:00Z",
		Start:   "2024-06-01T12:00:00Z",
		Stale:   "2024-06-01T12:02:00Z",
		Point: Point{
			Lat: "51.5",
			Lon: "-0.1",
			HAE: "10972.8",
			CE:  Unknown,
			LE:  Unknown,
		},
		Detail: &Detail{
			Remarks: &Remarks{Text: "BAW123 gw1"},
			Contact: &Contact{Callsign: "BAW123"},
			Track:   &Track{Course: "90", Speed: "231.5"},
		},
	}

	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`) {
		t.Error("expected XML declaration prefix")
	}
	for _, want := range []string{
		`uid="ICAO-ABC123"`,
		`type="a-n-A-C-F"`,
		`<point lat="51.5" lon="-0.1" hae="10972.8" ce="9999999.0" le="9999999.0">`,
		`<contact callsign="BAW123">`,
		`<remarks>BAW123 gw1</remarks>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %s, got:\n%s", want, out)
		}
	}

	// Remarks must precede contact and track in the detail block
	if strings.Index(out, "<remarks>") > strings.Index(out, "<contact") {
		t.Error("expected remarks before contact in detail")
	}

	// No access attribute unless set
	if strings.Contains(out, "access=") {
		t.Error("expected no access attribute on an event without one")
	}
}

func TestMarshalEventWithAccess(t *testing.T) {
	event := HelloEvent("cotbridge@test", time.Now().UTC())
	event.Access = "Undefined"

	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `access="Undefined"`) {
		t.Error("expected access attribute")
	}
}

func TestCotTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	at := time.Date(2024, 6, 1, 14, 30, 0, 0, loc)
	if got := CotTime(at); got != "2024-06-01T12:30:00Z" {
		t.Errorf("expected UTC normalization, got %q", got)
	}
}

func TestHelloEvent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	event := HelloEvent("cotbridge@gw1", now)

	if event.UID != "cotbridge@gw1" {
		t.Errorf("unexpected UID %q", event.UID)
	}
	if event.Type != "t-x-d-d" {
		t.Errorf("expected announcement type t-x-d-d, got %q", event.Type)
	}
	if event.Time != "2024-06-01T12:00:00Z" {
		t.Errorf("unexpected time %q", event.Time)
	}
	if event.Stale != "2024-06-01T13:00:00Z" {
		t.Errorf("expected one hour staleness, got %q", event.Stale)
	}
	if event.Point.HAE != Unknown {
		t.Error("expected unknown altitude placeholder")
	}
}
