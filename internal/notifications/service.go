package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clubvoice/clubvoice/internal/bookings"
	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/internal/customers"
	"github.com/clubvoice/clubvoice/internal/observability/metrics"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// SMSSender dispatches one SMS and returns the provider's message id.
// Implementations can be swapped (Twilio, stub) without changing callers.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

const defaultMaxRetries = 3

// Config wires the notification dispatcher.
type Config struct {
	Clubs    clubs.Repository
	Store    Repository
	SMS      SMSSender
	Email    EmailSender
	Provider string
	Metrics  *metrics.PlatformMetrics
	Logger   *logging.Logger
}

// Service sends manager- and customer-facing notifications and records
// every attempt. Delivery failures never propagate past the notification
// row and the returned error; nothing here aborts a call flow.
type Service struct {
	clubs    clubs.Repository
	store    Repository
	sms      SMSSender
	email    EmailSender
	provider string
	metrics  *metrics.PlatformMetrics
	logger   *logging.Logger
}

// NewService builds the dispatcher.
func NewService(cfg Config) *Service {
	if cfg.Clubs == nil || cfg.Store == nil {
		panic("notifications: club and notification stores required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Provider == "" {
		cfg.Provider = "stub"
	}
	return &Service{
		clubs:    cfg.Clubs,
		store:    cfg.Store,
		sms:      cfg.SMS,
		email:    cfg.Email,
		provider: cfg.Provider,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// SendEscalation texts the club manager about a question the assistant
// could not answer. No manager phone means no attempt and no row.
func (s *Service) SendEscalation(ctx context.Context, clubID, customerName, customerPhone, question, conversationID string) error {
	club, err := s.clubs.GetByID(ctx, clubID)
	if err != nil {
		return fmt.Errorf("notifications: load club: %w", err)
	}
	if club.ManagerPhone == "" {
		return ErrNoManagerPhone
	}

	message := fmt.Sprintf("🔔 ESCALATION - %s\n\nCustomer: %s\nPhone: %s\n\nQuestion: %s\n\nPlease follow up with this customer.",
		club.Name, customerName, customerPhone, question)

	n := &Notification{
		ClubID:         clubID,
		ConversationID: conversationID,
		Type:           TypeEscalation,
		Channel:        ChannelSMS,
		RecipientName:  club.ManagerName,
		RecipientPhone: club.ManagerPhone,
		Message:        message,
	}
	sendErr := s.deliverSMS(ctx, n)

	s.emailManager(ctx, club, TypeEscalation, conversationID,
		fmt.Sprintf("🔔 Escalation - %s", customerName), message)

	return sendErr
}

// BookingConfirmation texts the booking contact their confirmation details.
func (s *Service) BookingConfirmation(ctx context.Context, b *bookings.Booking) error {
	if b.ContactPhone == "" {
		return nil
	}
	club, err := s.clubs.GetByID(ctx, b.ClubID)
	if err != nil {
		return fmt.Errorf("notifications: load club: %w", err)
	}

	message := fmt.Sprintf("✅ Booking Confirmed - %s\n\nDate: %s\nTime: %s - %s\nResource: %s\nConfirmation: %s\n\nThank you for booking with us!",
		club.Name, b.StartTime.Format("2006-01-02"), b.StartTime.Format("15:04"), b.EndTime.Format("15:04"),
		b.ResourceName, b.ConfirmationCode)

	n := &Notification{
		ClubID:         b.ClubID,
		CustomerID:     b.CustomerID,
		ConversationID: b.ConversationID,
		BookingID:      b.ID,
		Type:           TypeBookingConfirmation,
		Channel:        ChannelSMS,
		RecipientName:  b.ContactName,
		RecipientPhone: b.ContactPhone,
		Message:        message,
	}
	return s.deliverSMS(ctx, n)
}

// BookingReminder texts the booking contact ahead of their slot. Run from
// the reminder sweep, not a request path.
func (s *Service) BookingReminder(ctx context.Context, b *bookings.Booking, hoursBefore int) error {
	if b.ContactPhone == "" {
		return nil
	}
	club, err := s.clubs.GetByID(ctx, b.ClubID)
	if err != nil {
		return fmt.Errorf("notifications: load club: %w", err)
	}

	message := fmt.Sprintf("⏰ Booking Reminder - %s\n\nYour booking is in %d hours!\n\nDate: %s\nTime: %s\nResource: %s\n\nSee you soon!",
		club.Name, hoursBefore, b.StartTime.Format("2006-01-02"), b.StartTime.Format("15:04"), b.ResourceName)

	n := &Notification{
		ClubID:         b.ClubID,
		CustomerID:     b.CustomerID,
		BookingID:      b.ID,
		Type:           TypeBookingReminder,
		Channel:        ChannelSMS,
		RecipientName:  b.ContactName,
		RecipientPhone: b.ContactPhone,
		Message:        message,
	}
	return s.deliverSMS(ctx, n)
}

// LeadAlert texts the club manager about a new or updated lead.
func (s *Service) LeadAlert(ctx context.Context, customer *customers.Customer) error {
	club, err := s.clubs.GetByID(ctx, customer.ClubID)
	if err != nil {
		return fmt.Errorf("notifications: load club: %w", err)
	}
	if club.ManagerPhone == "" {
		return ErrNoManagerPhone
	}

	email := customer.Email
	if email == "" {
		email = "N/A"
	}
	interest := customer.InterestedIn
	if interest == "" {
		interest = "General inquiry"
	}
	message := fmt.Sprintf("🎯 NEW LEAD - %s\n\nName: %s\nPhone: %s\nEmail: %s\nInterest: %s\nStatus: %s\n\nConsider following up!",
		club.Name, customer.Name, customer.Phone, email, interest, customer.Status)

	n := &Notification{
		ClubID:         customer.ClubID,
		CustomerID:     customer.ID,
		Type:           TypeLeadAlert,
		Channel:        ChannelSMS,
		RecipientName:  club.ManagerName,
		RecipientPhone: club.ManagerPhone,
		Message:        message,
	}
	sendErr := s.deliverSMS(ctx, n)

	s.emailManager(ctx, club, TypeLeadAlert, "",
		fmt.Sprintf("🎯 New Lead - %s", customer.Name), message)

	return sendErr
}

// deliverSMS attempts the send and records exactly one row.
func (s *Service) deliverSMS(ctx context.Context, n *Notification) error {
	var providerID string
	sendErr := ErrSenderNotConfigured
	if s.sms != nil {
		providerID, sendErr = s.sms.SendSMS(ctx, n.RecipientPhone, n.Message)
	}

	n.ID = uuid.NewString()
	n.Provider = s.provider
	n.MaxRetries = defaultMaxRetries
	if sendErr != nil {
		n.Status = StatusFailed
		n.ErrorMessage = sendErr.Error()
		s.metrics.ObserveSMS(s.provider, "failed")
	} else {
		now := time.Now().UTC()
		n.Status = StatusSent
		n.SentAt = &now
		n.ProviderMessageID = providerID
		s.metrics.ObserveSMS(s.provider, "sent")
	}

	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Error("failed to record notification", "error", err, "club_id", n.ClubID, "type", n.Type)
	}

	if sendErr != nil {
		s.logger.Error("sms send failed", "error", sendErr, "club_id", n.ClubID, "type", n.Type, "to", n.RecipientPhone)
		return fmt.Errorf("notifications: send sms: %w", sendErr)
	}
	s.logger.Info("sms sent", "club_id", n.ClubID, "type", n.Type, "to", n.RecipientPhone, "provider_message_id", providerID)
	return nil
}

// emailManager mirrors a manager SMS to the club's manager email when an
// email sender and address are available. Email problems only surface as
// failed rows.
func (s *Service) emailManager(ctx context.Context, club *clubs.Club, typ Type, conversationID, subject, body string) {
	if s.email == nil || club.ManagerEmail == "" {
		return
	}

	n := &Notification{
		ID:             uuid.NewString(),
		ClubID:         club.ID,
		ConversationID: conversationID,
		Type:           typ,
		Channel:        ChannelEmail,
		RecipientName:  club.ManagerName,
		RecipientEmail: club.ManagerEmail,
		Subject:        subject,
		Message:        body,
		MaxRetries:     defaultMaxRetries,
	}
	err := s.email.Send(ctx, EmailMessage{
		To:      club.ManagerEmail,
		ToName:  club.ManagerName,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		n.Status = StatusFailed
		n.ErrorMessage = err.Error()
		s.logger.Error("manager email failed", "error", err, "club_id", club.ID, "type", typ)
	} else {
		now := time.Now().UTC()
		n.Status = StatusSent
		n.SentAt = &now
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Error("failed to record notification", "error", err, "club_id", club.ID, "type", typ)
	}
}

// ProcessPending drains a club's pending rows: rows requeued through the
// retry endpoint and rows whose first attempt never ran. Each row gets one
// delivery attempt over its channel and is updated in place. Returns how
// many rows were delivered.
func (s *Service) ProcessPending(ctx context.Context, clubID string) (int, error) {
	pending, err := s.store.ListPending(ctx, clubID)
	if err != nil {
		return 0, fmt.Errorf("notifications: list pending: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		var sendErr error
		switch n.Channel {
		case ChannelEmail:
			if s.email == nil {
				sendErr = ErrSenderNotConfigured
			} else {
				sendErr = s.email.Send(ctx, EmailMessage{
					To:      n.RecipientEmail,
					ToName:  n.RecipientName,
					Subject: n.Subject,
					Body:    n.Message,
				})
			}
		default:
			var providerID string
			if s.sms == nil {
				sendErr = ErrSenderNotConfigured
			} else {
				providerID, sendErr = s.sms.SendSMS(ctx, n.RecipientPhone, n.Message)
			}
			if sendErr == nil {
				n.ProviderMessageID = providerID
				n.Provider = s.provider
			}
			s.metrics.ObserveSMS(s.provider, smsOutcome(sendErr))
		}

		if sendErr != nil {
			n.Status = StatusFailed
			n.ErrorMessage = sendErr.Error()
			s.logger.Error("pending delivery failed", "error", sendErr,
				"notification_id", n.ID, "club_id", n.ClubID, "type", n.Type)
		} else {
			now := time.Now().UTC()
			n.Status = StatusSent
			n.SentAt = &now
			n.ErrorMessage = ""
			delivered++
		}
		if err := s.store.Update(ctx, n); err != nil {
			s.logger.Error("failed to update notification", "error", err, "notification_id", n.ID)
		}
	}
	return delivered, nil
}

func smsOutcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "sent"
}

// StubSMSSender logs instead of sending. Used when no provider is
// configured.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_preview", truncate(body, 50))
	return "", nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var (
	_ SMSSender                   = (*StubSMSSender)(nil)
	_ bookings.ConfirmationSender = (*Service)(nil)
	_ customers.LeadAlerter       = (*Service)(nil)
)
