package customers

import (
	"strings"
	"time"
)

// Status tracks where a customer sits in the club's funnel.
type Status string

const (
	StatusLead       Status = "lead"
	StatusInterested Status = "interested"
	StatusTrial      Status = "trial"
	StatusMember     Status = "member"
	StatusInactive   Status = "inactive"
)

// PlaceholderName is assigned to callers we have not identified yet.
const PlaceholderName = "Unknown Caller"

// SourcePhoneCall marks customers first seen through the voice line.
const SourcePhoneCall = "phone_call"

// ValidStatus reports whether s is one of the known funnel states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusLead, StatusInterested, StatusTrial, StatusMember, StatusInactive:
		return true
	}
	return false
}

// Customer is a person known to a club, keyed by phone within the club.
// Phone is intentionally not unique: the same number can belong to
// customers of different clubs.
type Customer struct {
	ID            string     `json:"id"`
	ClubID        string     `json:"club_id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email,omitempty"`
	Source        string     `json:"source,omitempty"`
	Status        Status     `json:"status"`
	InterestedIn  string     `json:"interested_in,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	LastContactAt *time.Time `json:"last_contact_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	ClubID       string `json:"club_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Source       string `json:"source"`
	Status       Status `json:"status"`
	InterestedIn string `json:"interested_in"`
	Notes        string `json:"notes"`
}

// Validate checks the request and fills defaults.
func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.ClubID) == "" {
		return ErrMissingClubID
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Status == "" {
		r.Status = StatusLead
	}
	if !ValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// UpdateCustomerRequest carries a partial update. Nil fields are left
// untouched.
type UpdateCustomerRequest struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Status       *Status `json:"status,omitempty"`
	InterestedIn *string `json:"interested_in,omitempty"`
	Notes        *string `json:"notes,omitempty"`

	// LastContactAt is set internally when a call touches the customer.
	LastContactAt *time.Time `json:"-"`
}

// Apply copies the non-nil fields onto c.
func (r *UpdateCustomerRequest) Apply(c *Customer) error {
	if r.Name != nil && strings.TrimSpace(*r.Name) != "" {
		c.Name = *r.Name
	}
	if r.Phone != nil && strings.TrimSpace(*r.Phone) != "" {
		c.Phone = *r.Phone
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Status != nil {
		if !ValidStatus(*r.Status) {
			return ErrInvalidStatus
		}
		c.Status = *r.Status
	}
	if r.InterestedIn != nil {
		c.InterestedIn = *r.InterestedIn
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.LastContactAt != nil {
		t := *r.LastContactAt
		c.LastContactAt = &t
	}
	return nil
}
