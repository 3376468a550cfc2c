package sqlite

import "time"

// EventRecord is one transmitted CoT event as stored in the event log
type EventRecord struct {
	ID         int64     `json:"id"`
	UID        string    `json:"uid"`
	Callsign   string    `json:"callsign"`
	CotType    string    `json:"cot_type"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	AltitudeM  float64   `json:"altitude_m"`
	Timestamp  time.Time `json:"timestamp"`
	StaleTime  time.Time `json:"stale_time"`
	RecordedAt time.Time `json:"recorded_at"`
}
