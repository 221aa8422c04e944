package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool used by this repository.
// Declared locally so tests can substitute pgxmock.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in the relational database.
type PostgresRepository struct {
	db PgxPool
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db PgxPool) *PostgresRepository {
	if db == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, club_id, customer_id, conversation_id, booking_type, status, resource_name, start_time, end_time, contact_name, contact_phone, contact_email, notes, confirmation_code, confirmation_sent_at, cancellation_reason, cancelled_at, cancelled_by, created_at, updated_at`

// CreateIfFree closes the check+insert race: the transaction serializes
// writers of the same (club, resource) through an advisory lock, locks
// overlap candidates, and only then inserts. The exclusion constraint in
// the schema backstops the same invariant; its violation is mapped to the
// conflict error too.
func (r *PostgresRepository) CreateIfFree(ctx context.Context, b *Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := b.ClubID + "/" + b.ResourceName
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 42))`, lockKey); err != nil {
		return fmt.Errorf("bookings: advisory lock: %w", err)
	}

	var blocking string
	err = tx.QueryRow(ctx, `
		SELECT id FROM bookings
		WHERE club_id = $1 AND resource_name = $2
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3 AND end_time > $4
		LIMIT 1
		FOR UPDATE
	`, b.ClubID, b.ResourceName, b.EndTime, b.StartTime).Scan(&blocking)
	if err == nil {
		return &ConflictError{Resource: b.ResourceName}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("bookings: overlap probe: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (id, club_id, customer_id, conversation_id, booking_type, status,
			resource_name, start_time, end_time, contact_name, contact_phone, contact_email,
			notes, confirmation_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`,
		b.ID,
		b.ClubID,
		nullString(b.CustomerID),
		nullString(b.ConversationID),
		string(b.BookingType),
		string(b.Status),
		b.ResourceName,
		b.StartTime,
		b.EndTime,
		b.ContactName,
		b.ContactPhone,
		b.ContactEmail,
		b.Notes,
		b.ConfirmationCode,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == "23P01":
				return &ConflictError{Resource: b.ResourceName}
			case pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "confirmation_code"):
				return errCodeCollision
			}
		}
		return fmt.Errorf("bookings: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	if id == "" {
		return nil, ErrBookingNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Booking, int, error) {
	filter.normalize()

	var where strings.Builder
	where.WriteString("WHERE 1=1")
	args := make([]any, 0, 6)
	add := func(cond string, val any) {
		args = append(args, val)
		fmt.Fprintf(&where, " AND %s $%d", cond, len(args))
	}
	if filter.ClubID != "" {
		add("club_id =", filter.ClubID)
	}
	if filter.CustomerID != "" {
		add("customer_id =", filter.CustomerID)
	}
	if filter.Status != "" {
		add("status =", string(filter.Status))
	}
	if !filter.From.IsZero() {
		add("start_time >=", filter.From)
	}
	if !filter.To.IsZero() {
		add("start_time <", filter.To)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bookings " + where.String()
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("bookings: count failed: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM bookings %s ORDER BY start_time ASC LIMIT %d OFFSET %d",
		bookingColumns, where.String(), filter.Limit, filter.Skip)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("bookings: select failed: %w", err)
	}
	defer rows.Close()

	list := []*Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("bookings: scan failed: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("bookings: rows failed: %w", err)
	}
	return list, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b *Booking) error {
	query := `
		UPDATE bookings
		SET customer_id = $2, conversation_id = $3, booking_type = $4, status = $5,
		    resource_name = $6, start_time = $7, end_time = $8, contact_name = $9,
		    contact_phone = $10, contact_email = $11, notes = $12,
		    confirmation_sent_at = $13, cancellation_reason = $14, cancelled_at = $15,
		    cancelled_by = $16, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		b.ID,
		nullString(b.CustomerID),
		nullString(b.ConversationID),
		string(b.BookingType),
		string(b.Status),
		b.ResourceName,
		b.StartTime,
		b.EndTime,
		b.ContactName,
		b.ContactPhone,
		b.ContactEmail,
		b.Notes,
		b.ConfirmationSentAt,
		b.CancellationReason,
		b.CancelledAt,
		b.CancelledBy,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookingNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return &ConflictError{Resource: b.ResourceName}
		}
		return fmt.Errorf("bookings: update failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) HasConflict(ctx context.Context, clubID, resource string, start, end time.Time, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE club_id = $1 AND resource_name = $2
			  AND status IN ('pending', 'confirmed')
			  AND start_time < $3 AND end_time > $4
			  AND ($5 = '' OR id::text <> $5)
		)
	`
	var conflict bool
	if err := r.db.QueryRow(ctx, query, clubID, resource, end, start, excludeID).Scan(&conflict); err != nil {
		return false, fmt.Errorf("bookings: conflict check: %w", err)
	}
	return conflict, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b              Booking
		customerID     *string
		conversationID *string
	)
	err := row.Scan(
		&b.ID,
		&b.ClubID,
		&customerID,
		&conversationID,
		&b.BookingType,
		&b.Status,
		&b.ResourceName,
		&b.StartTime,
		&b.EndTime,
		&b.ContactName,
		&b.ContactPhone,
		&b.ContactEmail,
		&b.Notes,
		&b.ConfirmationCode,
		&b.ConfirmationSentAt,
		&b.CancellationReason,
		&b.CancelledAt,
		&b.CancelledBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID != nil {
		b.CustomerID = *customerID
	}
	if conversationID != nil {
		b.ConversationID = *conversationID
	}
	return &b, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
