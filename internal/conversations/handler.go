package conversations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clubvoice/clubvoice/internal/tenancy"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Handler handles HTTP requests for the staff conversation views.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new conversations handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns the router for the conversation endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListConversations)
	r.Get("/{conversationID}", h.GetConversation)
	return r
}

// ListConversations handles GET /conversations?club_id=...&status=...
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
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

	list, total, err := h.repo.ListByClub(r.Context(), clubID, filter)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err, "club_id", clubID)
		writeError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": list,
		"total":         total,
		"page":          filter.Page,
		"page_size":     filter.PageSize,
	})
}

// GetConversation handles GET /conversations/{conversationID},
// returning the conversation with its transcript.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	conversation, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.logger.Error("failed to get conversation", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to get conversation")
		return
	}

	messages, err := h.repo.ListMessages(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load transcript", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to load transcript")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*Conversation
		Messages []*Message `json:"messages"`
	}{conversation, messages})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
