// Package matchi integrates with the Matchi booking platform. Matchi has no
// public API, so the integration generates booking links and instruction
// text; availability checks are a placeholder until an API exists.
package matchi

import (
	"context"
	"fmt"
	"strings"

	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// DefaultBaseURL is the public Matchi site used when a club has no booking
// page of its own.
const DefaultBaseURL = "https://matchi.se"

// PhoneFallbackInstructions is returned when a club has no Matchi page.
const PhoneFallbackInstructions = "For bookings, please contact us directly by phone."

// Availability is the placeholder answer for availability checks.
type Availability struct {
	Available  bool   `json:"available"`
	Message    string `json:"message"`
	BookingURL string `json:"booking_url"`
}

// Service resolves per-club Matchi booking pages.
type Service struct {
	clubs   clubs.Repository
	baseURL string
	logger  *logging.Logger
}

// NewService wires the Matchi collaborator to the club registry.
func NewService(clubRepo clubs.Repository, baseURL string, logger *logging.Logger) *Service {
	if clubRepo == nil {
		panic("matchi: club repository required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{clubs: clubRepo, baseURL: baseURL, logger: logger}
}

// BookingURL returns the club's Matchi page, empty when not configured.
func (s *Service) BookingURL(ctx context.Context, clubID string) (string, error) {
	club, err := s.clubs.GetByID(ctx, clubID)
	if err != nil {
		return "", fmt.Errorf("matchi: resolve club: %w", err)
	}
	return club.MatchiBookingURL, nil
}

// BookingInstructions renders the text the assistant reads to a caller who
// asks how to book. Clubs without a Matchi page get a phone fallback.
func (s *Service) BookingInstructions(ctx context.Context, clubID string) string {
	club, err := s.clubs.GetByID(ctx, clubID)
	if err != nil || club.MatchiBookingURL == "" {
		return PhoneFallbackInstructions
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To make a booking, you can visit our booking page at %s.\n", club.MatchiBookingURL)
	b.WriteString("There you can:\n")
	b.WriteString("- View available time slots\n")
	b.WriteString("- See real-time availability\n")
	b.WriteString("- Book courts or sessions\n")
	b.WriteString("- Manage your bookings\n\n")
	b.WriteString("If you'd prefer to book over the phone, I can help you with that too.\n")
	b.WriteString("Just let me know what date and time you're interested in.")
	return b.String()
}

// CheckAvailability is a placeholder until Matchi exposes an API. It always
// reports available and points at the booking site.
func (s *Service) CheckAvailability(date, timeOfDay, resource string) Availability {
	return Availability{
		Available:  true,
		Message:    "Please check availability on Matchi directly",
		BookingURL: s.baseURL,
	}
}

// FormatBookingLink appends an optional YYYY-MM-DD date query to a club's
// booking page.
func FormatBookingLink(clubMatchiURL, date string) string {
	if clubMatchiURL == "" {
		return ""
	}
	if date == "" {
		return clubMatchiURL
	}
	if strings.Contains(clubMatchiURL, "?") {
		return clubMatchiURL + "&date=" + date
	}
	return clubMatchiURL + "?date=" + date
}
