package clubs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Handler provides HTTP endpoints for club management.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new club HTTP handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns a chi router with club admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{clubID}", h.Get)
	r.Put("/{clubID}", h.Update)
	r.Patch("/{clubID}", h.Update)
	return r
}

// Create handles POST / and registers a new club.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	club, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("failed to create club", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("club created", "club_id", club.ID, "slug", club.Slug)
	writeJSON(w, http.StatusCreated, club)
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list clubs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clubs": out, "total": len(out)})
}

// Get handles GET /{clubID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	club, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "clubID"))
	if err != nil {
		if errors.Is(err, ErrClubNotFound) {
			writeError(w, http.StatusNotFound, "club not found")
			return
		}
		h.logger.Error("failed to get club", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, club)
}

// Update handles PUT/PATCH /{clubID} with partial update semantics.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateClubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	clubID := chi.URLParam(r, "clubID")
	club, err := h.repo.Update(r.Context(), clubID, &req)
	if err != nil {
		if errors.Is(err, ErrClubNotFound) {
			writeError(w, http.StatusNotFound, "club not found")
			return
		}
		h.logger.Error("failed to update club", "club_id", clubID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("club updated", "club_id", club.ID)
	writeJSON(w, http.StatusOK, club)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidSlug) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidPhone)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
