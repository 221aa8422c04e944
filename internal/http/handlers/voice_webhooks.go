package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clubvoice/clubvoice/internal/bookings"
	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/internal/conversations"
	"github.com/clubvoice/clubvoice/internal/customers"
	"github.com/clubvoice/clubvoice/internal/matchi"
	observemetrics "github.com/clubvoice/clubvoice/internal/observability/metrics"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// escalationSender forwards a caller's unanswered question to the club
// manager.
type escalationSender interface {
	SendEscalation(ctx context.Context, clubID, customerName, customerPhone, question, conversationID string) error
}

// VoiceWebhookHandler ingests events from the voice assistant platform:
// call lifecycle, transcript messages, and the assistant's function calls.
// Known event types are always acked with HTTP 200; domain failures ride
// inside the response payload so the assistant can speak them.
type VoiceWebhookHandler struct {
	tracker     *conversations.Tracker
	clubs       clubs.Repository
	customers   customers.Repository
	bookings    *bookings.Service
	notifier    escalationSender
	matchi      *matchi.Service
	secret      string
	environment string
	logger      *logging.Logger
	metrics     *observemetrics.PlatformMetrics
}

type VoiceWebhookConfig struct {
	Tracker     *conversations.Tracker
	Clubs       clubs.Repository
	Customers   customers.Repository
	Bookings    *bookings.Service
	Notifier    escalationSender
	Matchi      *matchi.Service
	Secret      string
	Environment string
	Logger      *logging.Logger
	Metrics     *observemetrics.PlatformMetrics
}

func NewVoiceWebhookHandler(cfg VoiceWebhookConfig) *VoiceWebhookHandler {
	if cfg.Tracker == nil || cfg.Clubs == nil || cfg.Customers == nil || cfg.Bookings == nil {
		panic("handlers: voice webhook dependencies required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &VoiceWebhookHandler{
		tracker:     cfg.Tracker,
		clubs:       cfg.Clubs,
		customers:   cfg.Customers,
		bookings:    cfg.Bookings,
		notifier:    cfg.Notifier,
		matchi:      cfg.Matchi,
		secret:      cfg.Secret,
		environment: cfg.Environment,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// HandleWebhook processes POST /voice/webhook. The provider treats any
// non-200 as a delivery failure and retries, so only transport-level
// problems (bad signature, malformed payload, unknown type) get error
// statuses; everything past dispatch is acked.
func (h *VoiceWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if h.environment == "production" {
		if !h.verifySignature(body, r.Header.Get("x-vapi-signature")) {
			h.logger.Warn("invalid voice webhook signature")
			writeError(w, http.StatusUnauthorized, "Invalid webhook signature")
			return
		}
	}

	// Some telephony integrations post form-encoded bodies at this URL;
	// ack them so the provider stops retrying.
	if !json.Valid(body) {
		h.logger.Info("non-JSON webhook body acknowledged")
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "Non-JSON request received",
		})
		return
	}

	var payload voiceWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid payload: "+err.Error())
		return
	}
	if strings.TrimSpace(payload.Type) == "" {
		writeError(w, http.StatusUnprocessableEntity, "Invalid payload: missing event type")
		return
	}

	var resp any
	outcome := "ok"
	switch payload.Type {
	case "call-start":
		resp, outcome = h.handleCallStart(r.Context(), &payload)
	case "call-end":
		resp, outcome = h.handleCallEnd(r.Context(), &payload)
	case "function-call":
		resp, outcome = h.handleFunctionCall(r.Context(), &payload)
	case "message":
		resp, outcome = h.handleMessage(r.Context(), &payload)
	case "transcript":
		resp = map[string]string{"status": "ok"}
	default:
		h.metrics.ObserveWebhookEvent("unknown", "rejected")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown event type: %s", payload.Type))
		return
	}

	h.metrics.ObserveWebhookEvent(payload.Type, outcome)
	h.metrics.ObserveWebhookLatency(payload.Type, time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

func (h *VoiceWebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" || h.secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

func (h *VoiceWebhookHandler) handleCallStart(ctx context.Context, p *voiceWebhookPayload) (any, string) {
	callID := p.callID()
	if callID == "" {
		return map[string]string{"status": "error", "message": "Missing call ID"}, "error"
	}
	phone := p.customerNumber()
	if phone == "" {
		return map[string]string{"status": "error", "message": "Missing phone number"}, "error"
	}

	conversation, err := h.tracker.OnCallStart(ctx, p.assistantID(), callID, phone)
	if err != nil {
		if errors.Is(err, clubs.ErrClubNotFound) {
			return map[string]string{"status": "error", "message": "Club not found"}, "error"
		}
		h.logger.Error("call-start handling failed", "error", err, "call_id", callID)
		return map[string]string{"status": "error", "message": "Failed to start conversation"}, "error"
	}

	return map[string]string{
		"status":          "ok",
		"conversation_id": conversation.ID,
		"customer_id":     conversation.CustomerID,
	}, "ok"
}

func (h *VoiceWebhookHandler) handleCallEnd(ctx context.Context, p *voiceWebhookPayload) (any, string) {
	callID := p.callID()
	if callID == "" {
		h.logger.Warn("call-end without call id acknowledged")
		return map[string]string{"status": "ok"}, "ok"
	}

	_, err := h.tracker.OnCallEnd(ctx, callID, p.Call.Duration, p.Call.Cost, p.Call.EndedReason)
	if errors.Is(err, conversations.ErrConversationNotFound) {
		h.logger.Warn("call-end for unknown call acknowledged", "call_id", callID)
		return map[string]string{"status": "ok"}, "ok"
	}
	if err != nil {
		h.logger.Error("call-end handling failed", "error", err, "call_id", callID)
		return map[string]string{"status": "error", "message": "Failed to complete conversation"}, "error"
	}
	return map[string]string{"status": "ok"}, "ok"
}

func (h *VoiceWebhookHandler) handleMessage(ctx context.Context, p *voiceWebhookPayload) (any, string) {
	if p.Message == nil {
		return map[string]string{"status": "ok"}, "ok"
	}

	if err := h.tracker.OnMessage(ctx, p.callID(), p.Message.Role, p.Message.Content, p.Message.ID); err != nil {
		h.logger.Error("message handling failed", "error", err, "call_id", p.callID())
		return map[string]string{"status": "error", "message": "Failed to store message"}, "error"
	}
	return map[string]string{"status": "ok"}, "ok"
}
