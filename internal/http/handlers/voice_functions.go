package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clubvoice/clubvoice/internal/bookings"
	"github.com/clubvoice/clubvoice/internal/conversations"
	"github.com/clubvoice/clubvoice/internal/customers"
)

// activityResources maps the assistant's activity vocabulary onto bookable
// resource names. Unknown activities fall through to title-casing.
var activityResources = map[string]string{
	"tennis": "Tennis Court",
	"padel":  "Padel Court",
	"gym":    "Gym Session",
}

// handleFunctionCall routes the assistant's function calls. Every branch
// returns a payload the assistant can read back to the caller; nothing
// here raises an HTTP error.
func (h *VoiceWebhookHandler) handleFunctionCall(ctx context.Context, p *voiceWebhookPayload) (any, string) {
	if p.FunctionCall == nil {
		return map[string]string{"error": "Missing function call"}, "error"
	}

	conversation, err := h.tracker.GetByCallID(ctx, p.callID())
	if err != nil {
		if !errors.Is(err, conversations.ErrConversationNotFound) {
			h.logger.Error("conversation lookup failed", "error", err, "call_id", p.callID())
		}
		return map[string]string{"error": "Conversation not found"}, "error"
	}

	params := p.FunctionCall.Parameters
	switch p.FunctionCall.Name {
	case "get_membership_info":
		return h.membershipInfo(ctx, conversation)
	case "get_availability":
		return h.availability(params)
	case "create_booking":
		return h.createBooking(ctx, params, conversation)
	case "save_customer_info":
		return h.saveCustomerInfo(ctx, params, conversation)
	case "escalate_to_manager":
		return h.escalateToManager(ctx, params, conversation)
	case "get_matchi_booking_link":
		return h.matchiBookingLink(ctx, conversation)
	default:
		return map[string]string{"error": fmt.Sprintf("Unknown function: %s", p.FunctionCall.Name)}, "error"
	}
}

func (h *VoiceWebhookHandler) membershipInfo(ctx context.Context, c *conversations.Conversation) (any, string) {
	club, err := h.clubs.GetByID(ctx, c.ClubID)
	if err != nil {
		h.logger.Error("club lookup for membership info failed", "error", err, "club_id", c.ClubID)
		return map[string]string{"message": "No membership information available"}, "error"
	}

	summary, ok := club.MembershipSummary()
	if !ok {
		return map[string]string{"message": "No membership information available"}, "ok"
	}
	return map[string]string{"result": summary}, "ok"
}

func (h *VoiceWebhookHandler) availability(params map[string]any) (any, string) {
	date := paramString(params, "date")
	timeOfDay := paramString(params, "time")

	slot := h.matchi.CheckAvailability(date, timeOfDay, "Court")
	if slot.Available {
		return map[string]string{
			"result": fmt.Sprintf("There is availability on %s at %s. Would you like me to book it for you?", date, timeOfDay),
		}, "ok"
	}
	return map[string]string{
		"result": fmt.Sprintf("Please check our booking system for availability on %s at %s. You can book online at our Matchi page.", date, timeOfDay),
	}, "ok"
}

func (h *VoiceWebhookHandler) createBooking(ctx context.Context, params map[string]any, c *conversations.Conversation) (any, string) {
	req, err := bookingRequestFromParams(params, c)
	if err != nil {
		return map[string]string{"error": "Failed to create booking: " + err.Error()}, "error"
	}

	booking, err := h.bookings.Create(ctx, req)
	if err != nil {
		if bookings.IsConflict(err) {
			h.metrics.ObserveBookingConflict()
		}
		return map[string]string{"error": "Failed to create booking: " + err.Error()}, "error"
	}

	return map[string]string{
		"result": fmt.Sprintf("Booking created! Confirmation code: %s. You'll receive an SMS confirmation shortly.", booking.ConfirmationCode),
	}, "ok"
}

func bookingRequestFromParams(params map[string]any, c *conversations.Conversation) (*bookings.CreateBookingRequest, error) {
	bookingDate := paramString(params, "booking_date")
	if bookingDate == "" {
		return nil, errors.New("booking_date is required")
	}

	var start, end time.Time
	var err error
	if bookingTime := paramString(params, "booking_time"); bookingTime != "" {
		start, err = parseSlotTime(bookingDate, bookingTime)
		if err != nil {
			return nil, err
		}
		end = start.Add(time.Hour)
	} else {
		startTime := paramString(params, "start_time")
		if startTime == "" {
			startTime = "10:00"
		}
		endTime := paramString(params, "end_time")
		if endTime == "" {
			endTime = "11:00"
		}
		if start, err = parseSlotTime(bookingDate, startTime); err != nil {
			return nil, err
		}
		if end, err = parseSlotTime(bookingDate, endTime); err != nil {
			return nil, err
		}
	}

	activity := paramString(params, "activity")
	if activity == "" {
		activity = "court"
	}
	resource, ok := activityResources[strings.ToLower(activity)]
	if !ok {
		resource = titleCase(activity)
	}

	return &bookings.CreateBookingRequest{
		ClubID:         c.ClubID,
		CustomerID:     c.CustomerID,
		ConversationID: c.ID,
		BookingType:    bookings.TypeCourt,
		ResourceName:   resource,
		StartTime:      start,
		EndTime:        end,
		ContactName:    paramString(params, "customer_name"),
		ContactPhone:   paramString(params, "customer_phone"),
		ContactEmail:   paramString(params, "customer_email"),
		Notes:          paramString(params, "notes"),
	}, nil
}

func parseSlotTime(date, clock string) (time.Time, error) {
	raw := date + "T" + clock
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid booking time %q", raw)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (h *VoiceWebhookHandler) saveCustomerInfo(ctx context.Context, params map[string]any, c *conversations.Conversation) (any, string) {
	update := &customers.UpdateCustomerRequest{}
	if name, ok := paramLookup(params, "name"); ok && name != customers.PlaceholderName {
		update.Name = &name
	}
	if email, ok := paramLookup(params, "email"); ok {
		update.Email = &email
	}
	if interest, ok := paramLookup(params, "interested_in"); ok {
		update.InterestedIn = &interest
	}
	if notes, ok := paramLookup(params, "notes"); ok {
		update.Notes = &notes
	}
	status := customers.StatusInterested
	update.Status = &status
	now := time.Now().UTC()
	update.LastContactAt = &now

	// A failed save shouldn't derail the call; the assistant keeps going.
	if _, err := h.customers.Update(ctx, c.CustomerID, update); err != nil {
		h.logger.Error("customer info save failed", "error", err, "customer_id", c.CustomerID)
	}
	return map[string]string{"result": "Customer information saved successfully"}, "ok"
}

func (h *VoiceWebhookHandler) escalateToManager(ctx context.Context, params map[string]any, c *conversations.Conversation) (any, string) {
	var sendErr error
	if h.notifier == nil {
		sendErr = errors.New("escalation sender not configured")
	} else {
		sendErr = h.notifier.SendEscalation(ctx,
			c.ClubID,
			paramString(params, "customer_name"),
			paramString(params, "customer_phone"),
			paramString(params, "question"),
			c.ID)
	}

	// The conversation is marked escalated even when delivery fails, so
	// staff can pick it up from the dashboard.
	if _, err := h.tracker.Escalate(ctx, c.ID); err != nil {
		h.logger.Error("conversation escalation failed", "error", err, "conversation_id", c.ID)
	}

	if sendErr != nil {
		h.logger.Warn("escalation delivery failed", "error", sendErr, "conversation_id", c.ID, "club_id", c.ClubID)
		return map[string]string{
			"result": "I'll make sure someone gets back to you about this. Is there anything else I can help you with right now?",
		}, "error"
	}
	return map[string]string{
		"result": "I've forwarded your question to our manager. They'll contact you shortly to help with your inquiry.",
	}, "ok"
}

func (h *VoiceWebhookHandler) matchiBookingLink(ctx context.Context, c *conversations.Conversation) (any, string) {
	instructions := h.matchi.BookingInstructions(ctx, c.ClubID)
	url, err := h.matchi.BookingURL(ctx, c.ClubID)
	if err != nil {
		h.logger.Warn("booking url lookup failed", "error", err, "club_id", c.ClubID)
	}

	resp := map[string]string{"result": instructions}
	if url != "" {
		resp["booking_url"] = url
	}
	return resp, "ok"
}
