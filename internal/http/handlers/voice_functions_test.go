package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/clubvoice/clubvoice/internal/bookings"
	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/internal/conversations"
	"github.com/clubvoice/clubvoice/internal/customers"
	"github.com/clubvoice/clubvoice/internal/matchi"
)

func functionCallBody(callID, name, params string) string {
	return fmt.Sprintf(`{"type":"function-call","call":{"id":%q},"functionCall":{"name":%q,"parameters":%s}}`, callID, name, params)
}

func TestFunctionCallWithoutConversation(t *testing.T) {
	f := newVoiceFixture(t)

	rr := f.post(t, functionCallBody("ghost", "get_membership_info", `{}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if resp := decodeMap(t, rr); resp["error"] != "Conversation not found" {
		t.Fatalf("response = %v", resp)
	}
}

func TestFunctionCallUnknownFunction(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "order_pizza", `{}`))
	if resp := decodeMap(t, rr); resp["error"] != "Unknown function: order_pizza" {
		t.Fatalf("response = %v", resp)
	}
}

func TestGetMembershipInfo(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "get_membership_info", `{}`))
	resp := decodeMap(t, rr)
	result, _ := resp["result"].(string)
	if !strings.HasPrefix(result, "We offer the following memberships:\n") {
		t.Fatalf("result = %q", result)
	}
	if !strings.Contains(result, "- Gold: 499 SEK per month\n") {
		t.Fatalf("result missing membership line: %q", result)
	}
}

func TestGetMembershipInfoUnconfigured(t *testing.T) {
	f := newVoiceFixture(t)
	none := []clubs.MembershipType{}
	if _, err := f.clubs.Update(context.Background(), f.club.ID, &clubs.UpdateClubRequest{MembershipTypes: &none}); err != nil {
		t.Fatalf("clear memberships: %v", err)
	}
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "get_membership_info", `{}`))
	if resp := decodeMap(t, rr); resp["message"] != "No membership information available" {
		t.Fatalf("response = %v", resp)
	}
}

func TestGetAvailability(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "get_availability", `{"date":"2026-09-01","time":"14:00"}`))
	resp := decodeMap(t, rr)
	want := "There is availability on 2026-09-01 at 14:00. Would you like me to book it for you?"
	if resp["result"] != want {
		t.Fatalf("result = %v, want %q", resp["result"], want)
	}
}

func TestCreateBookingFromCall(t *testing.T) {
	f := newVoiceFixture(t)
	conversationID := f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "create_booking",
		`{"customer_name":"Anna Svensson","customer_phone":"+46701234567","activity":"padel","booking_date":"2026-09-01","booking_time":"14:00"}`))
	resp := decodeMap(t, rr)
	result, _ := resp["result"].(string)
	if !strings.HasPrefix(result, "Booking created! Confirmation code: ") {
		t.Fatalf("result = %q", result)
	}
	if !strings.HasSuffix(result, "You'll receive an SMS confirmation shortly.") {
		t.Fatalf("result = %q", result)
	}

	list, total, err := f.bookings.List(context.Background(), bookings.ListFilter{ClubID: f.club.ID})
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	b := list[0]
	if b.ResourceName != "Padel Court" {
		t.Fatalf("ResourceName = %q", b.ResourceName)
	}
	if b.Status != bookings.StatusPending {
		t.Fatalf("Status = %q, want pending", b.Status)
	}
	if want := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC); !b.StartTime.Equal(want) {
		t.Fatalf("StartTime = %v, want %v", b.StartTime, want)
	}
	if want := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC); !b.EndTime.Equal(want) {
		t.Fatalf("EndTime = %v, want %v", b.EndTime, want)
	}
	if b.ConversationID != conversationID {
		t.Fatalf("ConversationID = %q, want %q", b.ConversationID, conversationID)
	}
	if b.ContactName != "Anna Svensson" || b.ContactPhone != "+46701234567" {
		t.Fatalf("contact = %q %q", b.ContactName, b.ContactPhone)
	}
	if !strings.Contains(result, b.ConfirmationCode) {
		t.Fatalf("result %q missing confirmation code %q", result, b.ConfirmationCode)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	body := functionCallBody("call-1", "create_booking",
		`{"customer_name":"Anna Svensson","customer_phone":"+46701234567","activity":"padel","booking_date":"2026-09-01","booking_time":"14:00"}`)
	if resp := decodeMap(t, f.post(t, body)); resp["result"] == nil {
		t.Fatalf("first booking failed: %v", resp)
	}

	resp := decodeMap(t, f.post(t, body))
	want := "Failed to create booking: 'Padel Court' is already booked for the requested time slot"
	if resp["error"] != want {
		t.Fatalf("error = %v, want %q", resp["error"], want)
	}

	if _, total, _ := f.bookings.List(context.Background(), bookings.ListFilter{ClubID: f.club.ID}); total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
}

func TestCreateBookingInvalidDate(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "create_booking",
		`{"customer_name":"Anna Svensson","customer_phone":"+46701234567","activity":"padel","booking_date":"tomorrow","booking_time":"14:00"}`))
	resp := decodeMap(t, rr)
	msg, _ := resp["error"].(string)
	if !strings.HasPrefix(msg, "Failed to create booking: ") {
		t.Fatalf("error = %q", msg)
	}
}

func TestCreateBookingDefaultSlot(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "create_booking",
		`{"customer_name":"Anna Svensson","customer_phone":"+46701234567","activity":"tennis","booking_date":"2026-09-01"}`))
	if resp := decodeMap(t, rr); resp["result"] == nil {
		t.Fatalf("booking failed: %v", resp)
	}

	list, _, err := f.bookings.List(context.Background(), bookings.ListFilter{ClubID: f.club.ID})
	if err != nil || len(list) != 1 {
		t.Fatalf("list bookings: %v (%d)", err, len(list))
	}
	b := list[0]
	if b.ResourceName != "Tennis Court" {
		t.Fatalf("ResourceName = %q", b.ResourceName)
	}
	if b.StartTime.Hour() != 10 || b.EndTime.Hour() != 11 {
		t.Fatalf("slot = %v - %v, want 10:00 - 11:00", b.StartTime, b.EndTime)
	}
}

func TestCreateBookingTitleCasesUnknownActivity(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "create_booking",
		`{"customer_name":"Anna Svensson","customer_phone":"+46701234567","activity":"squash lesson","booking_date":"2026-09-01","booking_time":"09:00"}`))
	if resp := decodeMap(t, rr); resp["result"] == nil {
		t.Fatalf("booking failed: %v", resp)
	}

	list, _, _ := f.bookings.List(context.Background(), bookings.ListFilter{ClubID: f.club.ID})
	if list[0].ResourceName != "Squash Lesson" {
		t.Fatalf("ResourceName = %q, want Squash Lesson", list[0].ResourceName)
	}
}

func TestSaveCustomerInfo(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "save_customer_info",
		`{"name":"Anna Svensson","email":"anna@example.com","interested_in":"padel membership","notes":"prefers evenings"}`))
	if resp := decodeMap(t, rr); resp["result"] != "Customer information saved successfully" {
		t.Fatalf("response = %v", resp)
	}

	customer, err := f.customers.FindByPhone(context.Background(), f.club.ID, "+46701234567")
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if customer.Name != "Anna Svensson" {
		t.Fatalf("Name = %q", customer.Name)
	}
	if customer.Email != "anna@example.com" || customer.InterestedIn != "padel membership" || customer.Notes != "prefers evenings" {
		t.Fatalf("customer = %+v", customer)
	}
	if customer.Status != customers.StatusInterested {
		t.Fatalf("Status = %q, want interested", customer.Status)
	}
	if customer.LastContactAt == nil {
		t.Fatal("LastContactAt not set")
	}
}

func TestSaveCustomerInfoKeepsRealName(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	f.post(t, functionCallBody("call-1", "save_customer_info", `{"name":"Anna Svensson"}`))
	f.post(t, functionCallBody("call-1", "save_customer_info", `{"name":"Unknown Caller","notes":"called again"}`))

	customer, err := f.customers.FindByPhone(context.Background(), f.club.ID, "+46701234567")
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if customer.Name != "Anna Svensson" {
		t.Fatalf("Name = %q, placeholder overwrote the real name", customer.Name)
	}
	if customer.Notes != "called again" {
		t.Fatalf("Notes = %q", customer.Notes)
	}
}

func TestEscalateToManager(t *testing.T) {
	f := newVoiceFixture(t)
	conversationID := f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "escalate_to_manager",
		`{"customer_name":"Anna Svensson","customer_phone":"+46701234567","question":"Do you host company events?"}`))
	resp := decodeMap(t, rr)
	want := "I've forwarded your question to our manager. They'll contact you shortly to help with your inquiry."
	if resp["result"] != want {
		t.Fatalf("result = %v", resp["result"])
	}

	if len(f.notifier.calls) != 1 {
		t.Fatalf("escalations sent = %d, want 1", len(f.notifier.calls))
	}
	call := f.notifier.calls[0]
	if call.clubID != f.club.ID || call.customerName != "Anna Svensson" || call.question != "Do you host company events?" {
		t.Fatalf("escalation = %+v", call)
	}
	if call.conversationID != conversationID {
		t.Fatalf("conversationID = %q, want %q", call.conversationID, conversationID)
	}

	conversation, err := f.convos.GetByID(context.Background(), conversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conversation.Status != conversations.StatusEscalated || !conversation.EscalatedToManager {
		t.Fatalf("conversation = %q escalated=%v", conversation.Status, conversation.EscalatedToManager)
	}
}

func TestEscalateToManagerDeliveryFailure(t *testing.T) {
	f := newVoiceFixture(t)
	conversationID := f.startCall(t, "call-1", "+46701234567")
	f.notifier.err = errors.New("No manager phone number configured")

	rr := f.post(t, functionCallBody("call-1", "escalate_to_manager",
		`{"customer_name":"Anna Svensson","customer_phone":"+46701234567","question":"Opening hours on holidays?"}`))
	resp := decodeMap(t, rr)
	want := "I'll make sure someone gets back to you about this. Is there anything else I can help you with right now?"
	if resp["result"] != want {
		t.Fatalf("result = %v", resp["result"])
	}

	// Staff still see the escalation even though the SMS never left.
	conversation, err := f.convos.GetByID(context.Background(), conversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conversation.Status != conversations.StatusEscalated {
		t.Fatalf("Status = %q, want escalated", conversation.Status)
	}
}

func TestGetMatchiBookingLink(t *testing.T) {
	f := newVoiceFixture(t)
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "get_matchi_booking_link", `{}`))
	resp := decodeMap(t, rr)
	if resp["booking_url"] != "https://matchi.se/facilities/padelhouse" {
		t.Fatalf("booking_url = %v", resp["booking_url"])
	}
	result, _ := resp["result"].(string)
	if !strings.Contains(result, "https://matchi.se/facilities/padelhouse") {
		t.Fatalf("result = %q", result)
	}
}

func TestGetMatchiBookingLinkUnconfigured(t *testing.T) {
	f := newVoiceFixture(t)
	empty := ""
	if _, err := f.clubs.Update(context.Background(), f.club.ID, &clubs.UpdateClubRequest{MatchiBookingURL: &empty}); err != nil {
		t.Fatalf("clear booking url: %v", err)
	}
	f.startCall(t, "call-1", "+46701234567")

	rr := f.post(t, functionCallBody("call-1", "get_matchi_booking_link", `{}`))
	resp := decodeMap(t, rr)
	if resp["result"] != matchi.PhoneFallbackInstructions {
		t.Fatalf("result = %v", resp["result"])
	}
	if _, ok := resp["booking_url"]; ok {
		t.Fatalf("booking_url present for unconfigured club: %v", resp)
	}
}
