package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clubvoice/clubvoice/internal/tenancy"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Handler serves the staff-facing notification endpoints. Sending happens in
// the Service; this surface is for auditing and requeueing.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new notifications handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns the router for the notification endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListNotifications)
	r.Get("/club/{clubID}/pending", h.PendingNotifications)
	r.Get("/stats/{clubID}", h.NotificationStats)
	r.Get("/{notificationID}", h.GetNotification)
	r.Post("/{notificationID}/retry", h.RetryNotification)
	return r
}

// ListNotifications handles GET /notifications?notification_type=...&status=...&skip=...&limit=...
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	clubID, ok := tenancy.ClubIDFromContext(r.Context())
	if !ok {
		clubID = r.URL.Query().Get("club_id")
	}
	if clubID == "" {
		writeError(w, http.StatusBadRequest, "club_id is required")
		return
	}

	filter := ListFilter{
		Type:   r.URL.Query().Get("notification_type"),
		Status: r.URL.Query().Get("status"),
	}
	if skip, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil {
		filter.Skip = skip
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}
	filter.Normalize()

	notifications, total, err := h.repo.ListByClub(r.Context(), clubID, filter)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err, "club_id", clubID)
		writeError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"total":         total,
		"page":          filter.Skip/filter.Limit + 1,
		"page_size":     filter.Limit,
	})
}

// GetNotification handles GET /notifications/{notificationID}.
func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "notificationID")
	n, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notification with ID %s not found", id))
			return
		}
		h.logger.Error("failed to get notification", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to get notification")
		return
	}
	if !h.clubAllowed(r, n.ClubID) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// PendingNotifications handles GET /notifications/club/{clubID}/pending.
// Used by external sweeps that drain the requeued rows.
func (h *Handler) PendingNotifications(w http.ResponseWriter, r *http.Request) {
	clubID := chi.URLParam(r, "clubID")
	if !h.clubAllowed(r, clubID) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	notifications, err := h.repo.ListPending(r.Context(), clubID)
	if err != nil {
		h.logger.Error("failed to list pending notifications", "error", err, "club_id", clubID)
		writeError(w, http.StatusInternalServerError, "Failed to list pending notifications")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"total":         len(notifications),
		"page":          1,
		"page_size":     len(notifications),
	})
}

// RetryNotification handles POST /notifications/{notificationID}/retry.
// Moves a failed or bounced row back to pending for reprocessing.
func (h *Handler) RetryNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "notificationID")
	n, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notification with ID %s not found", id))
			return
		}
		h.logger.Error("failed to load notification for retry", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to load notification")
		return
	}
	if !h.clubAllowed(r, n.ClubID) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	if !n.Status.Retryable() {
		writeError(w, http.StatusBadRequest, "Can only retry failed or bounced notifications")
		return
	}

	n.Status = StatusPending
	n.ErrorMessage = ""
	n.RetryCount++
	if err := h.repo.Update(r.Context(), n); err != nil {
		h.logger.Error("failed to requeue notification", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to retry notification")
		return
	}

	h.logger.Info("notification requeued", "id", id, "retry_count", n.RetryCount)
	writeJSON(w, http.StatusOK, n)
}

// NotificationStats handles GET /notifications/stats/{clubID}.
func (h *Handler) NotificationStats(w http.ResponseWriter, r *http.Request) {
	clubID := chi.URLParam(r, "clubID")
	if !h.clubAllowed(r, clubID) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	stats, err := h.repo.Stats(r.Context(), clubID)
	if err != nil {
		h.logger.Error("failed to load notification stats", "error", err, "club_id", clubID)
		writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// clubAllowed enforces tenant scoping: a request bound to a club may only
// touch that club's rows. Unscoped (super admin) requests pass.
func (h *Handler) clubAllowed(r *http.Request, clubID string) bool {
	ctxClub, ok := tenancy.ClubIDFromContext(r.Context())
	return !ok || ctxClub == clubID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
