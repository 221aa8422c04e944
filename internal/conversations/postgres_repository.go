package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by this repository.
// Declared locally so tests can substitute pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores conversations in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("conversations: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const conversationColumns = `id, club_id, customer_id, call_id, status, call_duration, call_cost, outcome, escalated_to_manager, started_at, ended_at, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, c *Conversation) error {
	query := `
		INSERT INTO conversations (id, club_id, customer_id, call_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		c.ID,
		c.ClubID,
		c.CustomerID,
		c.CallID,
		string(c.Status),
		c.StartedAt,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "call_id") {
			return errDuplicateCallID
		}
		return fmt.Errorf("conversations: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Conversation, error) {
	if id == "" {
		return nil, ErrConversationNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE id = $1`, conversationColumns)
	return r.scanConversation(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) GetByCallID(ctx context.Context, callID string) (*Conversation, error) {
	if callID == "" {
		return nil, ErrConversationNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE call_id = $1`, conversationColumns)
	return r.scanConversation(r.db.QueryRow(ctx, query, callID))
}

func (r *PostgresRepository) Update(ctx context.Context, c *Conversation) error {
	query := `
		UPDATE conversations
		SET status = $2, call_duration = $3, call_cost = $4, outcome = $5,
		    escalated_to_manager = $6, ended_at = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		c.ID,
		string(c.Status),
		c.CallDuration,
		c.CallCost,
		c.Outcome,
		c.EscalatedToManager,
		c.EndedAt,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("conversations: update failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Conversation, int, error) {
	filter.normalize()

	countQuery := `SELECT COUNT(*) FROM conversations WHERE club_id = $1 AND ($2 = '' OR status = $2)`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, clubID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("conversations: count failed: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM conversations
		WHERE club_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4
	`, conversationColumns)
	rows, err := r.db.Query(ctx, query, clubID, string(filter.Status), filter.PageSize, (filter.Page-1)*filter.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("conversations: select failed: %w", err)
	}
	defer rows.Close()

	list := []*Conversation{}
	for rows.Next() {
		var c Conversation
		if err := scanConversationRow(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("conversations: scan failed: %w", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("conversations: rows failed: %w", err)
	}
	return list, total, nil
}

func (r *PostgresRepository) AddMessage(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, external_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		m.ID,
		m.ConversationID,
		string(m.Role),
		m.Content,
		m.ExternalID,
	).Scan(&m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrConversationNotFound
		}
		return fmt.Errorf("conversations: insert message failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, external_id, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversations: select messages failed: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.ExternalID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversations: scan message failed: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations: rows failed: %w", err)
	}
	return messages, nil
}

func (r *PostgresRepository) scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	if err := scanConversationRow(row, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversations: select failed: %w", err)
	}
	return &c, nil
}

func scanConversationRow(row pgx.Row, c *Conversation) error {
	return row.Scan(
		&c.ID,
		&c.ClubID,
		&c.CustomerID,
		&c.CallID,
		&c.Status,
		&c.CallDuration,
		&c.CallCost,
		&c.Outcome,
		&c.EscalatedToManager,
		&c.StartedAt,
		&c.EndedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}
