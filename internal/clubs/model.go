package clubs

import (
	"fmt"
	"strings"
	"time"
)

// Club is the tenant record. Every other entity in the system carries a
// club id and every query is scoped by it.
type Club struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Country          string           `json:"country"`
	MatchiBookingURL string           `json:"matchi_booking_url,omitempty"`
	MembershipTypes  []MembershipType `json:"membership_types"`
	AssistantID      string           `json:"assistant_id,omitempty"`
	CustomGreeting   string           `json:"custom_greeting,omitempty"`
	IsActive         bool             `json:"is_active"`
	ManagerName      string           `json:"manager_name,omitempty"`
	ManagerPhone     string           `json:"manager_phone,omitempty"`
	ManagerEmail     string           `json:"manager_email,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// MembershipType is one entry of a club's membership configuration.
type MembershipType struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Period   string  `json:"period"`
}

// MembershipSummary renders the membership configuration as the text the
// assistant reads to a caller. The second return is false when the club has
// no membership types configured.
func (c *Club) MembershipSummary() (string, bool) {
	if len(c.MembershipTypes) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString("We offer the following memberships:\n")
	for _, m := range c.MembershipTypes {
		fmt.Fprintf(&b, "- %s: %v %s per %s\n", m.Name, m.Price, m.Currency, m.Period)
	}
	return b.String(), true
}

// CreateClubRequest is the request body for creating a club.
type CreateClubRequest struct {
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Country          string           `json:"country"`
	MatchiBookingURL string           `json:"matchi_booking_url"`
	MembershipTypes  []MembershipType `json:"membership_types"`
	AssistantID      string           `json:"assistant_id"`
	CustomGreeting   string           `json:"custom_greeting"`
	ManagerName      string           `json:"manager_name"`
	ManagerPhone     string           `json:"manager_phone"`
	ManagerEmail     string           `json:"manager_email"`
}

// Validate validates the create club request
func (r *CreateClubRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Slug) == "" {
		return ErrInvalidSlug
	}
	if r.Email == "" {
		return ErrInvalidEmail
	}
	if r.Phone == "" {
		return ErrInvalidPhone
	}
	return nil
}

// UpdateClubRequest is the request body for partially updating a club.
// Nil pointers leave the corresponding field untouched.
type UpdateClubRequest struct {
	Name             *string           `json:"name"`
	Email            *string           `json:"email"`
	Phone            *string           `json:"phone"`
	Country          *string           `json:"country"`
	MatchiBookingURL *string           `json:"matchi_booking_url"`
	MembershipTypes  *[]MembershipType `json:"membership_types"`
	AssistantID      *string           `json:"assistant_id"`
	CustomGreeting   *string           `json:"custom_greeting"`
	IsActive         *bool             `json:"is_active"`
	ManagerName      *string           `json:"manager_name"`
	ManagerPhone     *string           `json:"manager_phone"`
	ManagerEmail     *string           `json:"manager_email"`
}

// Apply copies the set fields onto the club.
func (r *UpdateClubRequest) Apply(c *Club) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Country != nil {
		c.Country = *r.Country
	}
	if r.MatchiBookingURL != nil {
		c.MatchiBookingURL = *r.MatchiBookingURL
	}
	if r.MembershipTypes != nil {
		c.MembershipTypes = *r.MembershipTypes
	}
	if r.AssistantID != nil {
		c.AssistantID = *r.AssistantID
	}
	if r.CustomGreeting != nil {
		c.CustomGreeting = *r.CustomGreeting
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.ManagerName != nil {
		c.ManagerName = *r.ManagerName
	}
	if r.ManagerPhone != nil {
		c.ManagerPhone = *r.ManagerPhone
	}
	if r.ManagerEmail != nil {
		c.ManagerEmail = *r.ManagerEmail
	}
}
