package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clubvoice/clubvoice/internal/tenancy"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Handler serves the staff dashboard aggregates.
type Handler struct {
	stats  *StatsRepository
	logger *logging.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(stats *StatsRepository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{stats: stats, logger: logger}
}

// GetStats returns per-club activity aggregates.
// GET /dashboard/stats?club_id=...
// Query params:
//   - start: RFC3339 timestamp (optional, requires end)
//   - end: RFC3339 timestamp (optional, requires start)
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	clubID, ok := tenancy.ClubIDFromContext(r.Context())
	if !ok {
		clubID = strings.TrimSpace(r.URL.Query().Get("club_id"))
	}
	if clubID == "" {
		writeError(w, http.StatusBadRequest, "club_id is required")
		return
	}
	if h.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "dashboard disabled")
		return
	}

	start, end, periodStart, periodEnd, err := parseStatsWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.stats.Collect(r.Context(), clubID, start, end)
	if err != nil {
		h.logger.Error("failed to collect dashboard stats", "club_id", clubID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}
	stats.PeriodStart = periodStart
	stats.PeriodEnd = periodEnd

	writeJSON(w, http.StatusOK, stats)
}

func parseStatsWindow(r *http.Request) (*time.Time, *time.Time, string, string, error) {
	q := r.URL.Query()
	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))

	if (startRaw == "") != (endRaw == "") {
		return nil, nil, "", "", fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw == "" {
		return nil, nil, "all-time", "now", nil
	}

	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("invalid start time, use RFC3339 format")
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("invalid end time, use RFC3339 format")
	}
	if !end.After(start) {
		return nil, nil, "", "", fmt.Errorf("end must be after start")
	}
	start = start.UTC()
	end = end.UTC()

	return &start, &end, start.Format(time.RFC3339), end.Format(time.RFC3339), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
