package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/internal/cot"
	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/internal/storage/sqlite"
	"github.com/skysift/cotbridge/pkg/logger"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.CoT.URL = "tcp://takserver:8087"
	cfg.Source.URL = "http://piaware:8080/data/aircraft.json"
	return cfg
}

func newTestServer(t *testing.T, storage *sqlite.EventStorage) *httptest.Server {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("failed to build metrics: %v", err)
	}
	router := NewRouter(testConfig(), storage, m, logger.NewNop())
	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)
	return server
}

func newTestStorage(t *testing.T) *sqlite.EventStorage {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	storage, err := sqlite.NewEventStorage(db, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return storage
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	var body map[string]interface{}
	if status := getJSON(t, server.URL+"/api/v1/health", &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	var body map[string]interface{}
	if status := getJSON(t, server.URL+"/api/v1/status", &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["source_url"] != "http://piaware:8080/data/aircraft.json" {
		t.Errorf("unexpected source_url %v", body["source_url"])
	}
	if body["event_log"] != false {
		t.Error("expected event_log false without storage")
	}
}

func TestRecentEventsWithoutStorage(t *testing.T) {
	server := newTestServer(t, nil)

	if status := getJSON(t, server.URL+"/api/v1/events/recent", nil); status != http.StatusNotFound {
		t.Errorf("expected 404 without storage, got %d", status)
	}
}

func TestRecentEventsWithStorage(t *testing.T) {
	storage := newTestStorage(t)
	if err := storage.RecordEvent(&cot.Event{
		UID:   "ICAO-ABC123",
		Type:  "a-n-A-C-F",
		Time:  "2024-06-01T12:00:00Z",
		Stale: "2024-06-01T12:02:00Z",
		Point: cot.Point{Lat: "51.5", Lon: "-0.1", HAE: "10972.8", CE: cot.Unknown, LE: cot.Unknown},
	}); err != nil {
		t.Fatalf("failed to record event: %v", err)
	}

	server := newTestServer(t, storage)

	var body struct {
		Count  int                   `json:"count"`
		Events []*sqlite.EventRecord `json:"events"`
	}
	if status := getJSON(t, server.URL+"/api/v1/events/recent", &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body.Count != 1 || len(body.Events) != 1 {
		t.Fatalf("expected 1 event, got count=%d len=%d", body.Count, len(body.Events))
	}
	if body.Events[0].UID != "ICAO-ABC123" {
		t.Errorf("unexpected UID %q", body.Events[0].UID)
	}
}

func TestEventsByUIDEndpoint(t *testing.T) {
	storage := newTestStorage(t)
	storage.RecordEvent(&cot.Event{
		UID:   "ICAO-ABC123",
		Time:  "2024-06-01T12:00:00Z",
		Stale: "2024-06-01T12:02:00Z",
		Point: cot.Point{Lat: "51.5", Lon: "-0.1"},
	})

	server := newTestServer(t, storage)

	var body struct {
		UID   string `json:"uid"`
		Count int    `json:"count"`
	}
	if status := getJSON(t, server.URL+"/api/v1/events/ICAO-ABC123", &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body.UID != "ICAO-ABC123" || body.Count != 1 {
		t.Errorf("unexpected response: %+v", body)
	}

	if status := getJSON(t, server.URL+"/api/v1/events/ICAO-NOPE", &body); status != http.StatusOK {
		t.Errorf("expected 200 with empty result, got %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from metrics endpoint, got %d", resp.StatusCode)
	}
}
