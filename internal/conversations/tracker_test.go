package conversations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/internal/customers"
)

type recordingFeed struct {
	mu     sync.Mutex
	events []Event
}

func (f *recordingFeed) Broadcast(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := v.(Event); ok {
		f.events = append(f.events, e)
	}
}

func (f *recordingFeed) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

func newTrackerFixture(t *testing.T) (*Tracker, *clubs.Club, customers.Repository, *recordingFeed) {
	t.Helper()

	clubRepo := clubs.NewInMemoryRepository()
	club, err := clubRepo.Create(context.Background(), &clubs.CreateClubRequest{
		Name:        "Padel House",
		Slug:        "padel-house",
		Email:       "info@padelhouse.se",
		Phone:       "+46812345678",
		AssistantID: "asst-1",
	})
	if err != nil {
		t.Fatalf("seed club: %v", err)
	}

	customerRepo := customers.NewInMemoryRepository()
	feed := &recordingFeed{}
	tracker := NewTracker(clubRepo, customerRepo, NewInMemoryRepository(), feed, nil)
	return tracker, club, customerRepo, feed
}

func TestOnCallStartIdempotent(t *testing.T) {
	tracker, club, customerRepo, feed := newTrackerFixture(t)
	ctx := context.Background()

	first, err := tracker.OnCallStart(ctx, "asst-1", "abc", "+46700000001")
	if err != nil {
		t.Fatalf("first call-start: %v", err)
	}
	if first.Status != StatusActive {
		t.Fatalf("expected active conversation, got %s", first.Status)
	}
	if first.ClubID != club.ID {
		t.Fatalf("expected club binding, got %s", first.ClubID)
	}

	customer, err := customerRepo.GetByID(ctx, first.CustomerID)
	if err != nil {
		t.Fatalf("load created customer: %v", err)
	}
	if customer.Name != customers.PlaceholderName || customer.Source != customers.SourcePhoneCall {
		t.Fatalf("expected placeholder phone customer, got %+v", customer)
	}
	if customer.Status != customers.StatusLead {
		t.Fatalf("expected lead status, got %s", customer.Status)
	}

	second, err := tracker.OnCallStart(ctx, "asst-1", "abc", "+46700000001")
	if err != nil {
		t.Fatalf("replayed call-start: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay must return the same conversation: %s vs %s", second.ID, first.ID)
	}
	if second.CustomerID != first.CustomerID {
		t.Fatalf("replay must not create another customer")
	}

	if got := feed.types(); len(got) != 1 || got[0] != EventCallStarted {
		t.Fatalf("expected a single call_started event, got %v", got)
	}
}

func TestOnCallStartReusesCustomerByPhone(t *testing.T) {
	tracker, _, _, _ := newTrackerFixture(t)
	ctx := context.Background()

	first, err := tracker.OnCallStart(ctx, "asst-1", "call-1", "+46700000001")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := tracker.OnCallStart(ctx, "asst-1", "call-2", "+46700000001")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.CustomerID != second.CustomerID {
		t.Fatalf("repeat caller must map to the same customer")
	}
	if first.ID == second.ID {
		t.Fatalf("distinct calls must open distinct conversations")
	}
}

func TestOnCallStartUnknownAssistant(t *testing.T) {
	tracker, _, _, _ := newTrackerFixture(t)

	_, err := tracker.OnCallStart(context.Background(), "asst-unknown", "abc", "+46700000001")
	if !errors.Is(err, clubs.ErrClubNotFound) {
		t.Fatalf("expected ErrClubNotFound, got %v", err)
	}
}

func TestOnCallEndCompletesOnce(t *testing.T) {
	tracker, _, _, feed := newTrackerFixture(t)
	ctx := context.Background()

	if _, err := tracker.OnCallStart(ctx, "asst-1", "abc", "+46700000001"); err != nil {
		t.Fatalf("call-start: %v", err)
	}

	ended, err := tracker.OnCallEnd(ctx, "abc", 125, 0.42, "customer-ended-call")
	if err != nil {
		t.Fatalf("call-end: %v", err)
	}
	if ended.Status != StatusCompleted || ended.EndedAt == nil {
		t.Fatalf("expected completed conversation, got %+v", ended)
	}
	if ended.CallDuration != 125 || ended.Outcome != "customer-ended-call" {
		t.Fatalf("expected call stats recorded, got %+v", ended)
	}

	// Replayed call-end leaves the record untouched.
	replayed, err := tracker.OnCallEnd(ctx, "abc", 999, 9.99, "replay")
	if err != nil {
		t.Fatalf("replayed call-end: %v", err)
	}
	if replayed.CallDuration != 125 || replayed.Outcome != "customer-ended-call" {
		t.Fatalf("replay must not overwrite stats, got %+v", replayed)
	}

	if got := feed.types(); len(got) != 2 || got[1] != EventCallEnded {
		t.Fatalf("expected one call_ended event, got %v", got)
	}
}

func TestOnMessageNormalizesRole(t *testing.T) {
	tracker, _, _, _ := newTrackerFixture(t)
	ctx := context.Background()

	conversation, err := tracker.OnCallStart(ctx, "asst-1", "abc", "+46700000001")
	if err != nil {
		t.Fatalf("call-start: %v", err)
	}

	for _, role := range []string{"assistant", "user", "system", ""} {
		if err := tracker.OnMessage(ctx, "abc", role, "hello from "+role, ""); err != nil {
			t.Fatalf("message with role %q: %v", role, err)
		}
	}

	messages, err := tracker.repo.ListMessages(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Role != RoleAssistant {
		t.Fatalf("expected assistant role preserved, got %s", messages[0].Role)
	}
	for _, m := range messages[1:] {
		if m.Role != RoleCustomer {
			t.Fatalf("expected non-assistant roles normalized to customer, got %s", m.Role)
		}
	}
}

func TestOnMessageUnknownCallDropped(t *testing.T) {
	tracker, _, _, _ := newTrackerFixture(t)

	if err := tracker.OnMessage(context.Background(), "ghost-call", "user", "anyone there?", ""); err != nil {
		t.Fatalf("unknown-call message must be dropped silently, got %v", err)
	}
}

func TestEscalateAfterCallEnd(t *testing.T) {
	tracker, _, _, feed := newTrackerFixture(t)
	ctx := context.Background()

	conversation, err := tracker.OnCallStart(ctx, "asst-1", "abc", "+46700000001")
	if err != nil {
		t.Fatalf("call-start: %v", err)
	}
	if _, err := tracker.OnCallEnd(ctx, "abc", 60, 0.1, "customer-ended-call"); err != nil {
		t.Fatalf("call-end: %v", err)
	}

	escalated, err := tracker.Escalate(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("escalate after end: %v", err)
	}
	if escalated.Status != StatusEscalated || !escalated.EscalatedToManager {
		t.Fatalf("expected escalated conversation, got %+v", escalated)
	}

	// Escalating twice is a no-op.
	again, err := tracker.Escalate(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("double escalate: %v", err)
	}
	if !again.EscalatedToManager {
		t.Fatalf("expected escalation flag to stick")
	}

	types := feed.types()
	if len(types) != 3 || types[2] != EventEscalated {
		t.Fatalf("expected single escalated event, got %v", types)
	}
}
