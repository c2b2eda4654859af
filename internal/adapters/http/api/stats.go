package api

import (
	"context"
	"net/http"
	"time"
)

// StatsProvider defines the interface for dataset statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]interface{}
}

// StatsHandler handles stats requests.
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
		writeError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats(r.Context()))
}

// DatasetStats summarizes a Dependencies view.
type DatasetStats struct {
	deps Dependencies
}

// NewDatasetStats creates a StatsProvider over deps.
func NewDatasetStats(deps Dependencies) *DatasetStats {
	return &DatasetStats{deps: deps}
}

// GetStats reports entry count, last update and the leader.
func (d *DatasetStats) GetStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"entries": d.deps.Count(ctx),
	}
	if at, ok := d.deps.UpdatedAt(ctx); ok {
		stats["last_updated"] = at.Format(time.RFC3339)
	}
	if top, err := d.deps.TopN(ctx, 1); err == nil && len(top) == 1 {
		stats["leader"] = top[0]
	}
	return stats
}
