package cot

import (
	"encoding/xml"
	"fmt"
	"time"
)

// XML declaration prepended to every serialized event
const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

// TimeFormat is the CoT timestamp layout (UTC, second resolution)
const TimeFormat = "2006-01-02T15:04:05Z"

// Placeholder for unknown accuracy/course/speed values, per the CoT convention
const Unknown = "9999999.0"

// Event is one Cursor-on-Target event
type Event struct {
	XMLName xml.Name `xml:"event"`
	Version string   `xml:"version,attr"`
	UID     string   `xml:"uid,attr"`
	Type    string   `xml:"type,attr"`
	How     string   `xml:"how,attr"`
	Time    string   `xml:"time,attr"`
	Start   string   `xml:"start,attr"`
	Stale   string   `xml:"stale,attr"`
	Access  string   `xml:"access,attr,omitempty"`
	Point   Point    `xml:"point"`
	Detail  *Detail  `xml:"detail,omitempty"`
}

// Point is the event position with accuracy placeholders
type Point struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
	HAE string `xml:"hae,attr"`
	CE  string `xml:"ce,attr"`
	LE  string `xml:"le,attr"`
}

// Detail is the event detail block. Remarks must come first.
type Detail struct {
	Remarks *Remarks `xml:"remarks,omitempty"`
	Contact *Contact `xml:"contact,omitempty"`
	Track   *Track   `xml:"track,omitempty"`
}

// Remarks is free-form event text
type Remarks struct {
	Text string `xml:",chardata"`
}

// Contact carries the display callsign
type Contact struct {
	Callsign string `xml:"callsign,attr"`
}

// Track carries course (degrees) and speed (meters per second)
type Track struct {
	Course string `xml:"course,attr"`
	Speed  string `xml:"speed,attr"`
}

// Marshal serializes the event with the CoT XML declaration
func (e *Event) Marshal() ([]byte, error) {
	body, err := xml.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize CoT event: %w", err)
	}
	return append([]byte(xmlDeclaration+"\n"), body...), nil
}

// CotTime formats a timestamp in the CoT wire layout
func CotTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// HelloEvent builds the gateway announcement event sent before any aircraft
// traffic, so the destination learns of this gateway immediately
func HelloEvent(uid string, now time.Time) *Event {
	return &Event{
		Version: "2.0",
		UID:     uid,
		Type:    "t-x-d-d",
		How:     "m-g",
		Time:    CotTime(now),
		Start:   CotTime(now),
		Stale:   CotTime(now.Add(1 * time.Hour)),
		Point: Point{
			Lat: "0.0",
			Lon: "0.0",
			HAE: Unknown,
			CE:  Unknown,
			LE:  Unknown,
		},
	}
}
