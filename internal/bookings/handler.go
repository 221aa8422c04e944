package bookings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Handler handles HTTP requests for bookings.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new bookings handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the router for the booking endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateBooking)
	r.Get("/", h.ListBookings)
	r.Get("/check-availability", h.CheckAvailability)
	r.Get("/check-availability/", h.CheckAvailability)
	r.Get("/{bookingID}", h.GetBooking)
	r.Put("/{bookingID}", h.UpdateBooking)
	r.Patch("/{bookingID}", h.UpdateBooking)
	r.Post("/{bookingID}/confirm", h.ConfirmBooking)
	r.Post("/{bookingID}/cancel", h.CancelBooking)
	return r
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// ListBookings handles GET /bookings with filters and skip/limit paging.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		ClubID:     q.Get("club_id"),
		CustomerID: q.Get("customer_id"),
		Status:     Status(q.Get("status")),
	}
	if v, err := strconv.Atoi(q.Get("skip")); err == nil {
		filter.Skip = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if t, ok := parseTimeParam(q.Get("from_date")); ok {
		filter.From = t
	}
	if t, ok := parseTimeParam(q.Get("to_date")); ok {
		filter.To = t
	}
	filter.normalize()

	list, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list bookings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bookings":  list,
		"total":     total,
		"page":      filter.Skip/filter.Limit + 1,
		"page_size": filter.Limit,
	})
}

// CheckAvailability handles GET /bookings/check-availability.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clubID := q.Get("club_id")
	resource := q.Get("resource_name")
	start, okStart := parseTimeParam(q.Get("start_time"))
	end, okEnd := parseTimeParam(q.Get("end_time"))
	if !okStart || !okEnd {
		writeError(w, http.StatusBadRequest, "start_time and end_time must be valid timestamps")
		return
	}

	available, err := h.service.CheckAvailability(r.Context(), clubID, resource, start, end)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("availability check failed", "error", err, "club_id", clubID)
		writeError(w, http.StatusInternalServerError, "Failed to check availability")
		return
	}

	message := "Resource is available"
	if !available {
		message = "Resource is already booked"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available":     available,
		"club_id":       clubID,
		"resource_name": resource,
		"start_time":    start,
		"end_time":      end,
		"message":       message,
	})
}

// GetBooking handles GET /bookings/{bookingID}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")
	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// UpdateBooking handles PUT/PATCH /bookings/{bookingID}.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")

	var req UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	booking, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// ConfirmBooking handles POST /bookings/{bookingID}/confirm.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")
	booking, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// CancelBooking handles POST /bookings/{bookingID}/cancel.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")

	var body struct {
		Reason      string `json:"reason"`
		CancelledBy string `json:"cancelled_by"`
	}
	// Empty bodies are fine; the actor defaults to "system".
	_ = json.NewDecoder(r.Body).Decode(&body)

	booking, err := h.service.Cancel(r.Context(), id, body.Reason, body.CancelledBy)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, id string) {
	var (
		conflict   *ConflictError
		transition *InvalidTransitionError
	)
	switch {
	case errors.Is(err, ErrBookingNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Booking with ID %s not found", id))
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusBadRequest, transition.Error())
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("booking operation failed", "error", err, "booking_id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingClubID) ||
		errors.Is(err, ErrMissingResource) ||
		errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidBookingType) ||
		errors.Is(err, ErrInvalidStatus)
}

// parseTimeParam accepts RFC3339 or a bare date (midnight UTC).
func parseTimeParam(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
