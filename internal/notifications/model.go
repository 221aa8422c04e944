package notifications

import "time"

// Type classifies what a notification is about.
type Type string

const (
	TypeEscalation          Type = "escalation"
	TypeBookingConfirmation Type = "booking_confirmation"
	TypeBookingReminder     Type = "booking_reminder"
	TypeBookingCancellation Type = "booking_cancellation"
	TypeLeadAlert           Type = "lead_alert"
	TypeFollowUpReminder    Type = "follow_up_reminder"
	TypeSystemAlert         Type = "system_alert"
)

// Channel is the delivery mechanism.
type Channel string

const (
	ChannelSMS     Channel = "sms"
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
	ChannelPush    Channel = "push"
)

// Status tracks delivery state. Retries move failed/bounced rows back to
// pending; the pending list is drained by an external sweep, not a scheduler.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusBounced   Status = "bounced"
)

// Retryable reports whether a notification in this status may be requeued.
func (s Status) Retryable() bool {
	return s == StatusFailed || s == StatusBounced
}

// Notification is one delivery attempt record. Every outbound message the
// platform sends leaves exactly one row, whatever the outcome.
type Notification struct {
	ID                string     `json:"id"`
	ClubID            string     `json:"club_id"`
	CustomerID        string     `json:"customer_id,omitempty"`
	ConversationID    string     `json:"conversation_id,omitempty"`
	BookingID         string     `json:"booking_id,omitempty"`
	Type              Type       `json:"notification_type"`
	Channel           Channel    `json:"channel"`
	Status            Status     `json:"status"`
	RecipientName     string     `json:"recipient_name,omitempty"`
	RecipientPhone    string     `json:"recipient_phone,omitempty"`
	RecipientEmail    string     `json:"recipient_email,omitempty"`
	Subject           string     `json:"subject,omitempty"`
	Message           string     `json:"message"`
	Provider          string     `json:"provider,omitempty"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	RetryCount        int        `json:"retry_count"`
	MaxRetries        int        `json:"max_retries"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Stats aggregates a club's notification counts.
type Stats struct {
	ByStatus  map[string]int `json:"by_status"`
	ByType    map[string]int `json:"by_type"`
	ByChannel map[string]int `json:"by_channel"`
	Total     int            `json:"total"`
}
