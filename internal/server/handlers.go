package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/mvolkov/spreadbot/internal/arbitrage"
	"github.com/mvolkov/spreadbot/internal/domain"
)

// Handler serves the monitoring API endpoints from the in-memory
// opportunity store.
type Handler struct {
	opps *arbitrage.Store
}

// NewHandler creates a Handler reading from the given opportunity store.
func NewHandler(opps *arbitrage.Store) *Handler {
	return &Handler{opps: opps}
}

// Health responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListOpportunities returns currently active opportunities, sorted by profit
// descending. Optional query parameters: market (spot|futures) and
// min_profit (percentage floor).
// GET /api/opportunities
func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minProfit := 0.0
	if v := q.Get("min_profit"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeError(w, http.StatusBadRequest, "invalid min_profit")
			return
		}
		minProfit = f
	}

	var markets []domain.MarketType
	switch q.Get("market") {
	case "":
		markets = domain.MarketTypes
	case string(domain.MarketSpot):
		markets = []domain.MarketType{domain.MarketSpot}
	case string(domain.MarketFutures):
		markets = []domain.MarketType{domain.MarketFutures}
	default:
		writeError(w, http.StatusBadRequest, "invalid market")
		return
	}

	opps := make([]domain.Opportunity, 0)
	for _, m := range markets {
		opps = append(opps, h.opps.ListActive(m, minProfit)...)
	}
	// Per-market slices arrive sorted; re-sort so the combined response is
	// globally ordered by profit.
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].ProfitPercentage != opps[j].ProfitPercentage {
			return opps[i].ProfitPercentage > opps[j].ProfitPercentage
		}
		return opps[i].LastSeenAt.After(opps[j].LastSeenAt)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(opps),
		"opportunities": opps,
	})
}

// Stats returns aggregate detection counters.
// GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opps.Stats())
}

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
