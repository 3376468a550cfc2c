package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/skysift/cotbridge/internal/cot"
	"github.com/skysift/cotbridge/pkg/logger"
)

// EventStorage persists transmitted CoT events
type EventStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewEventStorage creates a new SQLite event log
func NewEventStorage(db *sql.DB, logger *logger.Logger) (*EventStorage, error) {
	storage := &EventStorage{
		db:     db,
		logger: logger.Named("sqlite-events"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *EventStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL,
			callsign TEXT,
			cot_type TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			altitude_m REAL,
			timestamp TIMESTAMP NOT NULL,
			stale_time TIMESTAMP NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_uid ON events(uid)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
	}
	for _, indexSQL := range indexes {
		if _, err = s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create event index: %w", err)
		}
	}

	return nil
}

// RecordEvent stores one transmitted event. It implements the transmitter's
// recorder contract.
func (s *EventStorage) RecordEvent(event *cot.Event) error {
	var callsign string
	if event.Detail != nil && event.Detail.Contact != nil {
		callsign = event.Detail.Contact.Callsign
	}

	_, err := s.db.Exec(
		`INSERT INTO events
		(uid, callsign, cot_type, lat, lon, altitude_m, timestamp, stale_time, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.UID,
		callsign,
		event.Type,
		parseCoord(event.Point.Lat),
		parseCoord(event.Point.Lon),
		parseCoord(event.Point.HAE),
		event.Time,
		event.Stale,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// GetRecentEvents returns the most recently transmitted events
func (s *EventStorage) GetRecentEvents(limit int) ([]*EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, uid, callsign, cot_type, lat, lon, altitude_m, timestamp, stale_time, recorded_at
		FROM events
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return s.scanEventRows(rows)
}

// GetEventsByUID returns the transmitted events for one entity
func (s *EventStorage) GetEventsByUID(uid string, limit int) ([]*EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, uid, callsign, cot_type, lat, lon, altitude_m, timestamp, stale_time, recorded_at
		FROM events
		WHERE uid = ?
		ORDER BY id DESC
		LIMIT ?`,
		uid, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by uid: %w", err)
	}
	defer rows.Close()

	return s.scanEventRows(rows)
}

// CountEvents returns the total number of stored events
func (s *EventStorage) CountEvents() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// scanEventRows scans database rows into EventRecord structs
func (s *EventStorage) scanEventRows(rows *sql.Rows) ([]*EventRecord, error) {
	var records []*EventRecord
	for rows.Next() {
		var record EventRecord
		var timestamp, staleTime, recordedAt string
		var callsign sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.UID,
			&callsign,
			&record.CotType,
			&record.Lat,
			&record.Lon,
			&record.AltitudeM,
			&timestamp,
			&staleTime,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		record.Timestamp = parseTimestamp(timestamp)
		record.StaleTime = parseTimestamp(staleTime)
		record.RecordedAt = parseTimestamp(recordedAt)
		if callsign.Valid {
			record.Callsign = callsign.String
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// parseCoord converts a CoT coordinate attribute to a float. Placeholder
// values parse fine; anything else stores as zero.
func parseCoord(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseTimestamp tolerates both CoT and RFC3339 layouts
func parseTimestamp(v string) time.Time {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	if t, err := time.Parse(cot.TimeFormat, v); err == nil {
		return t
	}
	return time.Time{}
}
