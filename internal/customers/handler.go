package customers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clubvoice/clubvoice/internal/tenancy"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// LeadAlerter pushes a new-lead alert to the club manager. Wired to the
// notifications service; nil disables the endpoint.
type LeadAlerter interface {
	LeadAlert(ctx context.Context, customer *Customer) error
}

// Handler handles HTTP requests for customers.
type Handler struct {
	repo   Repository
	alerts LeadAlerter
	logger *logging.Logger
}

// NewHandler creates a new customers handler.
func NewHandler(repo Repository, alerts LeadAlerter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, alerts: alerts, logger: logger}
}

// Routes returns the router for the customer endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateCustomer)
	r.Get("/", h.ListCustomers)
	r.Get("/{customerID}", h.GetCustomer)
	r.Put("/{customerID}", h.UpdateCustomer)
	r.Patch("/{customerID}", h.UpdateCustomer)
	r.Post("/{customerID}/lead-alert", h.SendLeadAlert)
	return r
}

// CreateCustomer handles POST /customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if clubID, ok := tenancy.ClubIDFromContext(r.Context()); ok {
		req.ClubID = clubID
	}

	customer, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("failed to create customer", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	h.logger.Info("customer created", "id", customer.ID, "club_id", customer.ClubID)
	writeJSON(w, http.StatusCreated, customer)
}

// ListCustomers handles GET /customers?club_id=...&status=...&page=...
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	clubID, ok := tenancy.ClubIDFromContext(r.Context())
	if !ok {
		clubID = r.URL.Query().Get("club_id")
	}
	if clubID == "" {
		writeError(w, http.StatusBadRequest, "club_id is required")
		return
	}

	filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		filter.PageSize = size
	}
	filter.normalize()

	customers, total, err := h.repo.ListByClub(r.Context(), clubID, filter)
	if err != nil {
		h.logger.Error("failed to list customers", "error", err, "club_id", clubID)
		writeError(w, http.StatusInternalServerError, "Failed to list customers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customers": customers,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// GetCustomer handles GET /customers/{customerID}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	customer, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			writeError(w, http.StatusNotFound, "Customer not found")
			return
		}
		h.logger.Error("failed to get customer", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to get customer")
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// UpdateCustomer handles PUT/PATCH /customers/{customerID}.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")

	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCustomerNotFound):
			writeError(w, http.StatusNotFound, "Customer not found")
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("failed to update customer", "error", err, "id", id)
			writeError(w, http.StatusInternalServerError, "Failed to update customer")
		}
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// SendLeadAlert handles POST /customers/{customerID}/lead-alert. It pushes
// the manager notification on demand, outside the automatic call flow.
func (h *Handler) SendLeadAlert(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		writeError(w, http.StatusServiceUnavailable, "Lead alerts not configured")
		return
	}

	id := chi.URLParam(r, "customerID")
	customer, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			writeError(w, http.StatusNotFound, "Customer not found")
			return
		}
		h.logger.Error("failed to load customer for alert", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to load customer")
		return
	}

	if err := h.alerts.LeadAlert(r.Context(), customer); err != nil {
		h.logger.Error("lead alert failed", "error", err, "customer_id", id)
		writeError(w, http.StatusBadGateway, "Failed to send lead alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingClubID) ||
		errors.Is(err, ErrMissingPhone) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidStatus)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
