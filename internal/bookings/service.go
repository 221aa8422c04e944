package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clubvoice/clubvoice/pkg/logging"
)

var bookingsTracer = otel.Tracer("clubvoice.internal.bookings")

// ConfirmationSender delivers the booking confirmation SMS. Wired to the
// notifications service; nil disables sends.
type ConfirmationSender interface {
	BookingConfirmation(ctx context.Context, b *Booking) error
}

// Service drives the booking lifecycle: conflict-gated creation,
// confirmation, cancellation, and slot changes.
type Service struct {
	repo     Repository
	notifier ConfirmationSender
	logger   *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo Repository, notifier ConfirmationSender, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Create inserts a new booking unless the slot is taken. The confirmation
// code is regenerated on the rare storage collision instead of failing the
// create. The confirmation SMS is best-effort and never fails the call.
func (s *Service) Create(ctx context.Context, req *CreateBookingRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clubvoice.club_id", req.ClubID),
		attribute.String("clubvoice.resource", req.ResourceName),
	)

	status := StatusPending
	if req.Confirmed {
		status = StatusConfirmed
	}
	b := &Booking{
		ID:               uuid.New().String(),
		ClubID:           req.ClubID,
		CustomerID:       req.CustomerID,
		ConversationID:   req.ConversationID,
		BookingType:      req.BookingType,
		Status:           status,
		ResourceName:     req.ResourceName,
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime.UTC(),
		ContactName:      req.ContactName,
		ContactPhone:     req.ContactPhone,
		ContactEmail:     req.ContactEmail,
		Notes:            req.Notes,
		ConfirmationCode: NewConfirmationCode(),
	}

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.repo.CreateIfFree(ctx, b)
		if !errors.Is(err, errCodeCollision) {
			break
		}
		b.ConfirmationCode = NewConfirmationCode()
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("booking created",
		"booking_id", b.ID, "club_id", b.ClubID,
		"resource", b.ResourceName, "status", b.Status)

	s.sendConfirmation(ctx, b)
	return b, nil
}

// Update applies a partial update. Slot changes re-run the conflict check
// excluding the booking itself; status changes go through the lifecycle.
func (s *Service) Update(ctx context.Context, id string, req *UpdateBookingRequest) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ResourceName != nil && strings.TrimSpace(*req.ResourceName) != "" {
		b.ResourceName = *req.ResourceName
	}
	if req.StartTime != nil {
		b.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		b.EndTime = req.EndTime.UTC()
	}
	if !b.EndTime.After(b.StartTime) {
		return nil, ErrInvalidTimeRange
	}

	if req.ChangesSlot() && b.Status.Active() {
		conflict, err := s.repo.HasConflict(ctx, b.ClubID, b.ResourceName, b.StartTime, b.EndTime, b.ID)
		if err != nil {
			return nil, fmt.Errorf("bookings: conflict check: %w", err)
		}
		if conflict {
			return nil, &ConflictError{Resource: b.ResourceName}
		}
	}

	if req.Status != nil && *req.Status != b.Status {
		if !validStatus(*req.Status) {
			return nil, ErrInvalidStatus
		}
		if !b.Status.CanTransitionTo(*req.Status) {
			return nil, &InvalidTransitionError{From: b.Status, To: *req.Status}
		}
		b.Status = *req.Status
		if b.Status == StatusCancelled {
			now := time.Now().UTC()
			b.CancelledAt = &now
			if b.CancelledBy == "" {
				b.CancelledBy = "system"
			}
		}
	}

	if req.ContactName != nil {
		b.ContactName = *req.ContactName
	}
	if req.ContactPhone != nil {
		b.ContactPhone = *req.ContactPhone
	}
	if req.ContactEmail != nil {
		b.ContactEmail = *req.ContactEmail
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Confirm moves a pending booking to confirmed and resends the
// confirmation SMS best-effort.
func (s *Service) Confirm(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending {
		return nil, &InvalidTransitionError{From: b.Status, To: StatusConfirmed}
	}
	b.Status = StatusConfirmed
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking confirmed", "booking_id", b.ID, "club_id", b.ClubID)
	s.sendConfirmation(ctx, b)
	return b, nil
}

// Cancel releases the slot. Cancelled bookings no longer block overlap
// checks. The actor defaults to "system".
func (s *Service) Cancel(ctx context.Context, id, reason, actor string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, &InvalidTransitionError{From: b.Status, To: StatusCancelled}
	}
	if actor == "" {
		actor = "system"
	}
	now := time.Now().UTC()
	b.Status = StatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now
	b.CancelledBy = actor

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("booking cancelled", "booking_id", b.ID, "club_id", b.ClubID, "by", actor)
	return b, nil
}

// GetByID loads one booking.
func (s *Service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// List pages bookings by the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

// CheckAvailability reports whether the slot is free of active bookings.
func (s *Service) CheckAvailability(ctx context.Context, clubID, resource string, start, end time.Time) (bool, error) {
	if strings.TrimSpace(clubID) == "" {
		return false, ErrMissingClubID
	}
	if strings.TrimSpace(resource) == "" {
		return false, ErrMissingResource
	}
	if !end.After(start) {
		return false, ErrInvalidTimeRange
	}
	conflict, err := s.repo.HasConflict(ctx, clubID, resource, start, end, "")
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

func (s *Service) sendConfirmation(ctx context.Context, b *Booking) {
	if s.notifier == nil || b.ContactPhone == "" {
		return
	}
	if err := s.notifier.BookingConfirmation(ctx, b); err != nil {
		s.logger.Warn("confirmation send failed", "booking_id", b.ID, "error", err)
		return
	}
	now := time.Now().UTC()
	b.ConfirmationSentAt = &now
	if err := s.repo.Update(ctx, b); err != nil {
		s.logger.Warn("confirmation timestamp not persisted", "booking_id", b.ID, "error", err)
	}
}
