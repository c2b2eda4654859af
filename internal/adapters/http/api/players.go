package api

import (
	"context"
	"net/http"
	"strings"
)

// PlayersDependencies defines the interface for country queries.
type PlayersDependencies interface {
	ByCountry(ctx context.Context, country string) ([]Entry, error)
}

// PlayersHandler lists players by country.
type PlayersHandler struct {
	deps PlayersDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayersDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleGetPlayers handles GET /players/{country} requests.
func (h *PlayersHandler) HandleGetPlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}
	country := strings.TrimPrefix(r.URL.Path, "/players/")
	if len(country) != 3 || strings.Contains(country, "/") {
		writeError(w, r, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	entries, err := h.deps.ByCountry(r.Context(), country)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
