package conversations

import "time"

// Status is the conversation lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusEscalated Status = "escalated"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether the conversation is over.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusEscalated || s == StatusAbandoned
}

// Role identifies who produced a message.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// NormalizeRole maps provider roles onto ours: anything that is not the
// assistant speaks for the customer.
func NormalizeRole(role string) Role {
	if role == string(RoleAssistant) {
		return RoleAssistant
	}
	return RoleCustomer
}

// Conversation is one phone call handled by the voice assistant, keyed
// by the provider's call id.
type Conversation struct {
	ID                 string     `json:"id"`
	ClubID             string     `json:"club_id"`
	CustomerID         string     `json:"customer_id"`
	CallID             string     `json:"call_id"`
	Status             Status     `json:"status"`
	CallDuration       int        `json:"call_duration,omitempty"`
	CallCost           float64    `json:"call_cost,omitempty"`
	Outcome            string     `json:"outcome,omitempty"`
	EscalatedToManager bool       `json:"escalated_to_manager"`
	StartedAt          time.Time  `json:"started_at"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Message is a single utterance inside a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	ExternalID     string    `json:"external_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Event is broadcast to live dashboard subscribers on lifecycle changes.
type Event struct {
	Type           string    `json:"type"`
	ClubID         string    `json:"club_id"`
	ConversationID string    `json:"conversation_id"`
	CustomerID     string    `json:"customer_id,omitempty"`
	At             time.Time `json:"at"`
}

// Live event types.
const (
	EventCallStarted = "call_started"
	EventCallEnded   = "call_ended"
	EventEscalated   = "escalated"
)
