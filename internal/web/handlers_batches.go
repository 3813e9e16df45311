package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/CandleConvert/internal/core"
)

const (
	defaultBatchLimit = 20
	maxBatchLimit     = 100
)

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// handleListBatches returns recent batch summaries, newest first.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", defaultBatchLimit), maxBatchLimit)

	batches, err := s.service.RecentBatches(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// StatusResponse describes the converter's current load.
type StatusResponse struct {
	Batches          core.BatchLimiterStatus `json:"batches"`
	History          bool                    `json:"history"`
	SourceConfigured bool                    `json:"source_configured"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Batches:          s.service.LimiterStatus(),
		History:          s.service.HistoryEnabled(),
		SourceConfigured: s.service.DefaultSource() != "",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
