package conversations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/internal/customers"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Publisher receives lifecycle events for live dashboard subscribers.
// Wired to the websocket hub; nil disables publishing.
type Publisher interface {
	Broadcast(v any)
}

// Tracker maintains conversation state across webhook events. Webhooks
// can arrive concurrently and out of order; every operation is keyed by
// the provider call id and tolerates replays.
type Tracker struct {
	clubs     clubs.Repository
	customers customers.Repository
	repo      Repository
	feed      Publisher
	logger    *logging.Logger
}

// NewTracker constructs a tracker.
func NewTracker(clubRepo clubs.Repository, customerRepo customers.Repository, repo Repository, feed Publisher, logger *logging.Logger) *Tracker {
	if clubRepo == nil || customerRepo == nil || repo == nil {
		panic("conversations: repositories required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Tracker{
		clubs:     clubRepo,
		customers: customerRepo,
		repo:      repo,
		feed:      feed,
		logger:    logger,
	}
}

// OnCallStart opens a conversation for the call. It resolves the club by
// the assistant id, finds or creates the customer by phone, and is
// idempotent: a replayed call-start returns the existing conversation.
func (t *Tracker) OnCallStart(ctx context.Context, assistantID, callID, phone string) (*Conversation, error) {
	if callID == "" {
		return nil, ErrMissingCallID
	}

	if existing, err := t.repo.GetByCallID(ctx, callID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrConversationNotFound) {
		return nil, fmt.Errorf("conversations: lookup call: %w", err)
	}

	club, err := t.clubs.GetByAssistantID(ctx, assistantID)
	if err != nil {
		return nil, err
	}

	customer, err := t.customers.FindByPhone(ctx, club.ID, phone)
	if errors.Is(err, customers.ErrCustomerNotFound) {
		customer, err = t.customers.Create(ctx, &customers.CreateCustomerRequest{
			ClubID: club.ID,
			Name:   customers.PlaceholderName,
			Phone:  phone,
			Source: customers.SourcePhoneCall,
			Status: customers.StatusLead,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("conversations: resolve customer: %w", err)
	}

	conversation := &Conversation{
		ID:         uuid.New().String(),
		ClubID:     club.ID,
		CustomerID: customer.ID,
		CallID:     callID,
		Status:     StatusActive,
		StartedAt:  time.Now().UTC(),
	}
	if err := t.repo.Create(ctx, conversation); err != nil {
		// Lost the race against a concurrent call-start for the same call.
		if errors.Is(err, errDuplicateCallID) {
			return t.repo.GetByCallID(ctx, callID)
		}
		return nil, err
	}

	t.logger.Info("conversation started",
		"conversation_id", conversation.ID, "club_id", club.ID,
		"customer_id", customer.ID, "call_id", callID)
	t.publish(EventCallStarted, conversation)
	return conversation, nil
}

// OnCallEnd completes an active conversation with the call stats. Ending
// an already-terminal conversation is a no-op, so replays are safe.
func (t *Tracker) OnCallEnd(ctx context.Context, callID string, duration int, cost float64, endedReason string) (*Conversation, error) {
	conversation, err := t.repo.GetByCallID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if conversation.Status.Terminal() {
		return conversation, nil
	}

	now := time.Now().UTC()
	conversation.Status = StatusCompleted
	conversation.EndedAt = &now
	conversation.CallDuration = duration
	conversation.CallCost = cost
	conversation.Outcome = endedReason

	if err := t.repo.Update(ctx, conversation); err != nil {
		return nil, err
	}

	t.logger.Info("conversation completed",
		"conversation_id", conversation.ID, "duration", duration, "outcome", endedReason)
	t.publish(EventCallEnded, conversation)
	return conversation, nil
}

// OnMessage appends an utterance to the call's transcript. Messages for
// unknown calls are dropped with a warning; the webhook still acks them.
func (t *Tracker) OnMessage(ctx context.Context, callID, role, content, externalID string) error {
	conversation, err := t.repo.GetByCallID(ctx, callID)
	if errors.Is(err, ErrConversationNotFound) {
		t.logger.Warn("message for unknown call dropped", "call_id", callID)
		return nil
	}
	if err != nil {
		return err
	}

	return t.repo.AddMessage(ctx, &Message{
		ID:             uuid.New().String(),
		ConversationID: conversation.ID,
		Role:           NormalizeRole(role),
		Content:        content,
		ExternalID:     externalID,
	})
}

// Escalate marks the conversation as handed to the manager. Escalation
// wins over the current state: a completed call can still escalate when
// the manager follows up after hanging up.
func (t *Tracker) Escalate(ctx context.Context, conversationID string) (*Conversation, error) {
	conversation, err := t.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation.Status == StatusEscalated && conversation.EscalatedToManager {
		return conversation, nil
	}

	conversation.Status = StatusEscalated
	conversation.EscalatedToManager = true
	if err := t.repo.Update(ctx, conversation); err != nil {
		return nil, err
	}

	t.logger.Info("conversation escalated", "conversation_id", conversation.ID, "club_id", conversation.ClubID)
	t.publish(EventEscalated, conversation)
	return conversation, nil
}

// GetByID loads one conversation.
func (t *Tracker) GetByID(ctx context.Context, id string) (*Conversation, error) {
	return t.repo.GetByID(ctx, id)
}

// GetByCallID loads the conversation opened for a provider call id.
func (t *Tracker) GetByCallID(ctx context.Context, callID string) (*Conversation, error) {
	return t.repo.GetByCallID(ctx, callID)
}

func (t *Tracker) publish(eventType string, c *Conversation) {
	if t.feed == nil {
		return
	}
	t.feed.Broadcast(Event{
		Type:           eventType,
		ClubID:         c.ClubID,
		ConversationID: c.ID,
		CustomerID:     c.CustomerID,
		At:             time.Now().UTC(),
	})
}
