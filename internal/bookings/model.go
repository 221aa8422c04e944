package bookings

import (
	"strings"
	"time"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// BookingType categorizes what is being booked.
type BookingType string

const (
	TypeCourt    BookingType = "court"
	TypeCoaching BookingType = "coaching"
	TypeTrial    BookingType = "trial"
	TypeEvent    BookingType = "event"
	TypeOther    BookingType = "other"
)

// Active reports whether the status still holds the time slot.
// Terminal bookings never block new ones.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransitionTo encodes the lifecycle: pending → confirmed → completed,
// pending|confirmed → cancelled, confirmed → no_show.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled || next == StatusNoShow
	}
	return false
}

func validStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func validBookingType(t BookingType) bool {
	switch t {
	case TypeCourt, TypeCoaching, TypeTrial, TypeEvent, TypeOther:
		return true
	}
	return false
}

// Booking is a reservation of a named resource for a time window.
// The window is half-open: a booking ending at 11:00 does not overlap
// one starting at 11:00.
type Booking struct {
	ID                 string      `json:"id"`
	ClubID             string      `json:"club_id"`
	CustomerID         string      `json:"customer_id,omitempty"`
	ConversationID     string      `json:"conversation_id,omitempty"`
	BookingType        BookingType `json:"booking_type"`
	Status             Status      `json:"status"`
	ResourceName       string      `json:"resource_name"`
	StartTime          time.Time   `json:"start_time"`
	EndTime            time.Time   `json:"end_time"`
	ContactName        string      `json:"contact_name,omitempty"`
	ContactPhone       string      `json:"contact_phone,omitempty"`
	ContactEmail       string      `json:"contact_email,omitempty"`
	Notes              string      `json:"notes,omitempty"`
	ConfirmationCode   string      `json:"confirmation_code,omitempty"`
	ConfirmationSentAt *time.Time  `json:"confirmation_sent_at,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty"`
	CancelledBy        string      `json:"cancelled_by,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// CreateBookingRequest is the request body for creating a booking.
type CreateBookingRequest struct {
	ClubID         string      `json:"club_id"`
	CustomerID     string      `json:"customer_id"`
	ConversationID string      `json:"conversation_id"`
	BookingType    BookingType `json:"booking_type"`
	ResourceName   string      `json:"resource_name"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        time.Time   `json:"end_time"`
	ContactName    string      `json:"contact_name"`
	ContactPhone   string      `json:"contact_phone"`
	ContactEmail   string      `json:"contact_email"`
	Notes          string      `json:"notes"`

	// Confirmed skips the pending state for bookings taken by staff.
	Confirmed bool `json:"confirmed"`
}

// Validate checks the request and fills defaults.
func (r *CreateBookingRequest) Validate() error {
	if strings.TrimSpace(r.ClubID) == "" {
		return ErrMissingClubID
	}
	if strings.TrimSpace(r.ResourceName) == "" {
		return ErrMissingResource
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return ErrInvalidTimeRange
	}
	if !r.EndTime.After(r.StartTime) {
		return ErrInvalidTimeRange
	}
	if r.BookingType == "" {
		r.BookingType = TypeCourt
	}
	if !validBookingType(r.BookingType) {
		return ErrInvalidBookingType
	}
	return nil
}

// UpdateBookingRequest carries a partial update. Nil fields are left
// untouched. Status changes go through the lifecycle rules.
type UpdateBookingRequest struct {
	ResourceName *string    `json:"resource_name,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	ContactName  *string    `json:"contact_name,omitempty"`
	ContactPhone *string    `json:"contact_phone,omitempty"`
	ContactEmail *string    `json:"contact_email,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// ChangesSlot reports whether the update touches the reserved window.
func (r *UpdateBookingRequest) ChangesSlot() bool {
	return r.ResourceName != nil || r.StartTime != nil || r.EndTime != nil
}
