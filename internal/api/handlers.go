package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/internal/storage/sqlite"
	"github.com/skysift/cotbridge/pkg/logger"
)

const defaultEventLimit = 100

// Handler serves the status API endpoints
type Handler struct {
	config  *config.Config
	storage *sqlite.EventStorage
	started time.Time
	logger  *logger.Logger
}

// NewHandler creates a new API handler. The storage may be nil when the
// event log is disabled.
func NewHandler(config *config.Config, storage *sqlite.EventStorage, logger *logger.Logger) *Handler {
	return &Handler{
		config:  config,
		storage: storage,
		started: time.Now().UTC(),
		logger:  logger.Named("api-handler"),
	}
}

// GetHealth returns the health of the gateway
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStatus returns uptime and pipeline configuration
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"started":     h.started.Format(time.RFC3339),
		"uptime_secs": int64(time.Since(h.started).Seconds()),
		"source_url":  h.config.Source.URL,
		"cot_url":     h.config.CoT.URL,
		"uid_key":     h.config.CoT.UIDKey,
		"stale_secs":  h.config.CoT.StaleSeconds,
		"event_log":   h.storage != nil,
	}

	if h.storage != nil {
		count, err := h.storage.CountEvents()
		if err != nil {
			h.logger.Error("Failed to count events", logger.Error(err))
		} else {
			status["events_logged"] = count
		}
	}

	h.writeJSON(w, http.StatusOK, status)
}

// GetRecentEvents returns the most recently transmitted events
func (h *Handler) GetRecentEvents(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeError(w, http.StatusNotFound, "event log disabled")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	records, err := h.storage.GetRecentEvents(limit)
	if err != nil {
		h.logger.Error("Failed to get recent events", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(records),
		"events": records,
	})
}

// GetEventsByUID returns the transmitted events for one entity
func (h *Handler) GetEventsByUID(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeError(w, http.StatusNotFound, "event log disabled")
		return
	}

	uid := chi.URLParam(r, "uid")
	if uid == "" {
		h.writeError(w, http.StatusBadRequest, "missing uid")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	records, err := h.storage.GetEventsByUID(uid, limit)
	if err != nil {
		h.logger.Error("Failed to get events by uid",
			logger.String("uid", uid),
			logger.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uid":    uid,
		"count":  len(records),
		"events": records,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultEventLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultEventLimit
	}
	return limit
}
