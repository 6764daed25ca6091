package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/seeed-ha-core/internal/journal"
)

// maxEntityIDLen bounds path parameters.
const maxEntityIDLen = 100

// InfoResponse is the body of GET /info.
type InfoResponse struct {
	DeviceID  string `json:"device_id"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	Version   string `json:"version"`
	IP        string `json:"ip"`
	MAC       string `json:"mac"`
	RSSI      int    `json:"rssi"`
	Connected bool   `json:"connected"`
}

// handleInfo returns the device identity and connection flag.
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		DeviceID:  s.device.ID,
		Name:      s.device.Name,
		Model:     s.device.Model,
		Version:   s.device.Version,
		IP:        s.device.IP,
		MAC:       s.device.MAC,
		RSSI:      s.signal.RSSI(),
		Connected: s.engine.Connected(),
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.device.Version,
		"uptime_seconds": int64(s.sinceStart().Seconds()),
		"clients":        s.hub.ClientCount(),
		"sensors":        stats.Sensors,
		"switches":       stats.Switches,
		"ha_states":      s.states.Len(),
	})
}

// handleListEntities returns the discovery view of every entity.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	entities := Discovery(s.registry)
	writeJSON(w, http.StatusOK, map[string]any{
		"entities": entities,
		"count":    len(entities),
	})
}

// handleListHAStates returns the mirrored Home Assistant states.
func (s *Server) handleListHAStates(w http.ResponseWriter, _ *http.Request) {
	states := s.states.All()
	writeJSON(w, http.StatusOK, map[string]any{
		"states": states,
		"count":  len(states),
		"max":    s.states.Max(),
	})
}

// handleGetHistory returns journaled changes for one entity.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	if entityID == "" || len(entityID) > maxEntityIDLen {
		writeError(w, http.StatusBadRequest, "invalid entity ID")
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "state history unavailable")
		return
	}

	_, isSensor := s.registry.Sensor(entityID)
	_, isSwitch := s.registry.Switch(entityID)
	if !isSensor && !isSwitch {
		writeError(w, http.StatusNotFound, "entity not found")
		return
	}

	entries, err := s.history.History(r.Context(), entityID, limit)
	if err != nil {
		s.logger.Error("loading history failed", "entity_id", entityID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entity history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": entityID,
		"history":   entries,
		"count":     len(entries),
	})
}

// parseHistoryLimit parses the limit query parameter. Empty gives the
// default; values above the maximum are clamped.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return journal.DefaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("invalid limit")
	}
	return journal.ClampLimit(limit), nil
}
