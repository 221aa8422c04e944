package dashboard

import (
	"context"
	"database/sql"
	"time"
)

// Stats aggregates one club's activity for the staff dashboard.
type Stats struct {
	ClubID                string           `json:"club_id"`
	PeriodStart           string           `json:"period_start"`
	PeriodEnd             string           `json:"period_end"`
	ConversationsStarted  int64            `json:"conversations_started"`
	BookingsByStatus      map[string]int64 `json:"bookings_by_status"`
	NotificationsByStatus map[string]int64 `json:"notifications_by_status"`
	NewLeads              int64            `json:"new_leads"`
}

// StatsRepository reads dashboard aggregates. It is the only read path
// that crosses aggregate tables, so it runs on a plain sql.DB instead
// of the per-package pgx stores.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a stats repository.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	if db == nil {
		panic("dashboard: db required")
	}
	return &StatsRepository{db: db}
}

// Collect gathers the club's aggregates, optionally restricted to the
// half-open window [start, end).
func (r *StatsRepository) Collect(ctx context.Context, clubID string, start, end *time.Time) (*Stats, error) {
	stats := &Stats{ClubID: clubID}

	var err error
	if stats.ConversationsStarted, err = r.countConversations(ctx, clubID, start, end); err != nil {
		return nil, err
	}
	if stats.BookingsByStatus, err = r.groupByStatus(ctx, "bookings", "created_at", clubID, start, end); err != nil {
		return nil, err
	}
	if stats.NotificationsByStatus, err = r.groupByStatus(ctx, "notifications", "created_at", clubID, start, end); err != nil {
		return nil, err
	}
	if stats.NewLeads, err = r.countNewLeads(ctx, clubID, start, end); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *StatsRepository) countConversations(ctx context.Context, clubID string, start, end *time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM conversations WHERE club_id = $1`
	args := []any{clubID}
	if start != nil && end != nil {
		query += ` AND started_at >= $2 AND started_at < $3`
		args = append(args, *start, *end)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *StatsRepository) countNewLeads(ctx context.Context, clubID string, start, end *time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM customers WHERE club_id = $1 AND status = 'lead'`
	args := []any{clubID}
	if start != nil && end != nil {
		query += ` AND created_at >= $2 AND created_at < $3`
		args = append(args, *start, *end)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *StatsRepository) groupByStatus(ctx context.Context, table, timeColumn, clubID string, start, end *time.Time) (map[string]int64, error) {
	query := `SELECT status, COUNT(*) FROM ` + table + ` WHERE club_id = $1`
	args := []any{clubID}
	if start != nil && end != nil {
		query += ` AND ` + timeColumn + ` >= $2 AND ` + timeColumn + ` < $3`
		args = append(args, *start, *end)
	}
	query += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
