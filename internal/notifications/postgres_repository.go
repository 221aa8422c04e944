package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the notifications store needs. pgxmock
// satisfies it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists notifications in Postgres via pgx.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository wires the store to a pgx pool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("notifications: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const notificationColumns = "id, club_id, customer_id, conversation_id, booking_id, notification_type, channel, status, recipient_name, recipient_phone, recipient_email, subject, message, provider, provider_message_id, error_message, retry_count, max_retries, sent_at, delivered_at, created_at, updated_at"

// Create inserts one attempt record.
func (r *PostgresRepository) Create(ctx context.Context, n *Notification) error {
	row := r.db.QueryRow(ctx,
		`INSERT INTO notifications (id, club_id, customer_id, conversation_id, booking_id, notification_type, channel, status, recipient_name, recipient_phone, recipient_email, subject, message, provider, provider_message_id, error_message, retry_count, max_retries, sent_at, delivered_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20) RETURNING created_at, updated_at`,
		n.ID, n.ClubID, nullString(n.CustomerID), nullString(n.ConversationID), nullString(n.BookingID),
		string(n.Type), string(n.Channel), string(n.Status),
		n.RecipientName, n.RecipientPhone, n.RecipientEmail, n.Subject, n.Message,
		n.Provider, n.ProviderMessageID, n.ErrorMessage, n.RetryCount, n.MaxRetries,
		n.SentAt, n.DeliveredAt,
	)
	if err := row.Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		return fmt.Errorf("notifications: insert notification: %w", err)
	}
	return nil
}

// GetByID fetches one notification.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	if id == "" {
		return nil, ErrNotificationNotFound
	}
	row := r.db.QueryRow(ctx, "SELECT "+notificationColumns+" FROM notifications WHERE id = $1", id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("notifications: get notification: %w", err)
	}
	return n, nil
}

// ListByClub returns a page of a club's notifications, newest first, plus
// the unpaginated total.
func (r *PostgresRepository) ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Notification, int, error) {
	filter.Normalize()

	var total int
	err := r.db.QueryRow(ctx,
		"SELECT count(*) FROM notifications WHERE club_id = $1 AND ($2 = '' OR notification_type = $2) AND ($3 = '' OR status = $3)",
		clubID, filter.Type, filter.Status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("notifications: count notifications: %w", err)
	}

	rows, err := r.db.Query(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE club_id = $1 AND ($2 = '' OR notification_type = $2) AND ($3 = '' OR status = $3) ORDER BY created_at DESC LIMIT $4 OFFSET $5",
		clubID, filter.Type, filter.Status, filter.Limit, filter.Skip,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("notifications: list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("notifications: scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("notifications: iterate notifications: %w", err)
	}
	return out, total, nil
}

// ListPending returns a club's pending notifications, oldest first.
func (r *PostgresRepository) ListPending(ctx context.Context, clubID string) ([]*Notification, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE club_id = $1 AND status = 'pending' ORDER BY created_at ASC",
		clubID,
	)
	if err != nil {
		return nil, fmt.Errorf("notifications: list pending: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notifications: scan pending: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifications: iterate pending: %w", err)
	}
	return out, nil
}

// Update persists delivery/retry state changes.
func (r *PostgresRepository) Update(ctx context.Context, n *Notification) error {
	row := r.db.QueryRow(ctx,
		"UPDATE notifications SET status = $2, provider = $3, provider_message_id = $4, error_message = $5, retry_count = $6, sent_at = $7, delivered_at = $8, updated_at = now() WHERE id = $1 RETURNING updated_at",
		n.ID, string(n.Status), n.Provider, n.ProviderMessageID, n.ErrorMessage, n.RetryCount, n.SentAt, n.DeliveredAt,
	)
	if err := row.Scan(&n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("notifications: update notification: %w", err)
	}
	return nil
}

// Stats aggregates a club's counts by status, type, and channel.
func (r *PostgresRepository) Stats(ctx context.Context, clubID string) (*Stats, error) {
	stats := &Stats{
		ByStatus:  map[string]int{},
		ByType:    map[string]int{},
		ByChannel: map[string]int{},
	}

	groups := []struct {
		column string
		dest   map[string]int
	}{
		{"status", stats.ByStatus},
		{"notification_type", stats.ByType},
		{"channel", stats.ByChannel},
	}
	for _, g := range groups {
		rows, err := r.db.Query(ctx,
			"SELECT "+g.column+", count(*) FROM notifications WHERE club_id = $1 GROUP BY "+g.column,
			clubID,
		)
		if err != nil {
			return nil, fmt.Errorf("notifications: stats by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("notifications: scan stats: %w", err)
			}
			g.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("notifications: iterate stats: %w", err)
		}
		rows.Close()
	}

	err := r.db.QueryRow(ctx, "SELECT count(*) FROM notifications WHERE club_id = $1", clubID).Scan(&stats.Total)
	if err != nil {
		return nil, fmt.Errorf("notifications: stats total: %w", err)
	}
	return stats, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var customerID, conversationID, bookingID *string
	err := row.Scan(
		&n.ID, &n.ClubID, &customerID, &conversationID, &bookingID,
		&n.Type, &n.Channel, &n.Status,
		&n.RecipientName, &n.RecipientPhone, &n.RecipientEmail, &n.Subject, &n.Message,
		&n.Provider, &n.ProviderMessageID, &n.ErrorMessage, &n.RetryCount, &n.MaxRetries,
		&n.SentAt, &n.DeliveredAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID != nil {
		n.CustomerID = *customerID
	}
	if conversationID != nil {
		n.ConversationID = *conversationID
	}
	if bookingID != nil {
		n.BookingID = *bookingID
	}
	return &n, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
