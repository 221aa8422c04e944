package matchi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubvoice/clubvoice/internal/clubs"
)

func newMatchiFixture(t *testing.T, bookingURL string) (*Service, *clubs.Club) {
	t.Helper()

	clubRepo := clubs.NewInMemoryRepository()
	club, err := clubRepo.Create(context.Background(), &clubs.CreateClubRequest{
		Name:             "Padel House",
		Slug:             "padel-house",
		Email:            "info@padelhouse.se",
		Phone:            "+46812345678",
		MatchiBookingURL: bookingURL,
	})
	require.NoError(t, err)
	return NewService(clubRepo, "", nil), club
}

func TestBookingURL(t *testing.T) {
	svc, club := newMatchiFixture(t, "https://www.matchi.se/facilities/padelhouse")

	url, err := svc.BookingURL(context.Background(), club.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://www.matchi.se/facilities/padelhouse", url)

	_, err = svc.BookingURL(context.Background(), "missing")
	assert.Error(t, err)
}

func TestBookingInstructions(t *testing.T) {
	svc, club := newMatchiFixture(t, "https://www.matchi.se/facilities/padelhouse")

	got := svc.BookingInstructions(context.Background(), club.ID)
	assert.Contains(t, got, "To make a booking, you can visit our booking page at https://www.matchi.se/facilities/padelhouse.")
	assert.Contains(t, got, "View available time slots")
	assert.Contains(t, got, "Just let me know what date and time you're interested in.")
}

func TestBookingInstructionsFallsBackToPhone(t *testing.T) {
	svc, club := newMatchiFixture(t, "")

	assert.Equal(t, PhoneFallbackInstructions, svc.BookingInstructions(context.Background(), club.ID))
	assert.Equal(t, PhoneFallbackInstructions, svc.BookingInstructions(context.Background(), "missing"))
}

func TestCheckAvailabilityPlaceholder(t *testing.T) {
	svc, _ := newMatchiFixture(t, "")

	avail := svc.CheckAvailability("2026-09-12", "18:00", "Padel Court 1")
	assert.True(t, avail.Available, "placeholder must report available")
	assert.Equal(t, "Please check availability on Matchi directly", avail.Message)
	assert.Equal(t, DefaultBaseURL, avail.BookingURL)
}

func TestFormatBookingLink(t *testing.T) {
	assert.Empty(t, FormatBookingLink("", "2026-09-12"))
	assert.Equal(t, "https://matchi.se/club", FormatBookingLink("https://matchi.se/club", ""))
	assert.Equal(t, "https://matchi.se/club?date=2026-09-12", FormatBookingLink("https://matchi.se/club", "2026-09-12"))
	assert.Equal(t, "https://matchi.se/club?lang=en&date=2026-09-12", FormatBookingLink("https://matchi.se/club?lang=en", "2026-09-12"))
}
