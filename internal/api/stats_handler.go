package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexivanou/gazetteer/internal/stats"
	"go.uber.org/zap"
)

const statsTimeout = 10 * time.Second

// StatsHandler serves store and runtime statistics
type StatsHandler struct {
	collector *stats.Collector
	json      *Handler
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(collector *stats.Collector, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{collector: collector, json: &Handler{logger: logger}}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statsTimeout)
	defer cancel()

	s, err := h.collector.Collect(ctx)
	if err != nil {
		h.json.writeError(w, r, err)
		return
	}
	h.json.writeJSON(w, s)
}
