// Package api serves the ranking dataset over read-only HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/alexberlino/atp/internal/adapters/repository"
	"github.com/alexberlino/atp/internal/domain/model"
	"github.com/alexberlino/atp/pkg/metrics"
)

// Dependencies required by HTTP handlers.
type Dependencies = repository.Reader

// Entry mirrors the read shape returned by dataset queries.
type Entry = model.Entry

// Server wires HTTP routes for the dataset API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	playersHandler     *PlayersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(NewDatasetStats(deps)),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		playersHandler:     NewPlayersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", instrument("healthz", s.healthHandler.HandleHealth))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/leaderboard", instrument("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("/rank/", instrument("rank", s.rankHandler.HandleGetRank))
	mux.HandleFunc("/players/", instrument("players", s.playersHandler.HandleGetPlayers))
}

type endpointKey struct{}

// instrument counts and times requests to one endpoint. Error responses are
// counted separately by writeError, labelled with the code the handler chose.
func instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r.WithContext(context.WithValue(r.Context(), endpointKey{}, endpoint)))

		status := strconv.Itoa(sw.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Milliseconds()))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError replies with a JSON error body and counts it under code. Server
// faults are high severity, anything the client got wrong is medium.
func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	endpoint, _ := r.Context().Value(endpointKey{}).(string)
	if endpoint == "" {
		endpoint = "unknown"
	}
	severity := "medium"
	if status >= http.StatusInternalServerError {
		severity = "high"
	}
	metrics.RecordHTTPError(endpoint, r.Method, code, severity)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
