// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// ServiceStats is the runtime view served by GET /stats: pipeline sizing
// plus live queue, store, and dedupe occupancy once the service is running.
type ServiceStats struct {
	Started       bool   `json:"started"`
	StoreKind     string `json:"store_kind"`
	WorkerCount   int    `json:"worker_count"`
	QueueSize     int    `json:"queue_size"`
	DedupeSize    int    `json:"dedupe_size"`
	QueueLength   int    `json:"queue_length"`
	UsersTracked  int    `json:"users_tracked"`
	DedupeEntries int64  `json:"dedupe_entries"`
}

// StatsProvider supplies the runtime stats for the stats endpoint.
type StatsProvider interface {
	GetStats() ServiceStats
}

// StatsHandler serves service runtime statistics.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
