package clubs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs. Tests inject
// a pgxmock pool through it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores clubs in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("clubs: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const clubColumns = `id, name, slug, email, phone, country, matchi_booking_url,
	membership_types, assistant_id, custom_greeting, is_active,
	manager_name, manager_phone, manager_email, created_at, updated_at`

// Create inserts a new club row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateClubRequest) (*Club, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	memberships, err := json.Marshal(membershipsOrEmpty(req.MembershipTypes))
	if err != nil {
		return nil, fmt.Errorf("clubs: marshal membership types: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO clubs (id, name, slug, email, phone, country, matchi_booking_url,
			membership_types, assistant_id, custom_greeting, is_active,
			manager_name, manager_phone, manager_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Slug,
		req.Email,
		req.Phone,
		req.Country,
		req.MatchiBookingURL,
		memberships,
		req.AssistantID,
		req.CustomGreeting,
		req.ManagerName,
		req.ManagerPhone,
		req.ManagerEmail,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("clubs: insert failed: %w", err)
	}

	return &Club{
		ID:               id.String(),
		Name:             req.Name,
		Slug:             req.Slug,
		Email:            req.Email,
		Phone:            req.Phone,
		Country:          req.Country,
		MatchiBookingURL: req.MatchiBookingURL,
		MembershipTypes:  membershipsOrEmpty(req.MembershipTypes),
		AssistantID:      req.AssistantID,
		CustomGreeting:   req.CustomGreeting,
		IsActive:         true,
		ManagerName:      req.ManagerName,
		ManagerPhone:     req.ManagerPhone,
		ManagerEmail:     req.ManagerEmail,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

// GetByID fetches a club by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1`
	return r.scanClub(r.db.QueryRow(ctx, query, id))
}

// GetByAssistantID fetches the active club bound to an assistant identifier.
func (r *PostgresRepository) GetByAssistantID(ctx context.Context, assistantID string) (*Club, error) {
	if assistantID == "" {
		return nil, ErrClubNotFound
	}
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE assistant_id = $1 AND is_active = true`
	return r.scanClub(r.db.QueryRow(ctx, query, assistantID))
}

// List returns all clubs ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("clubs: select failed: %w", err)
	}
	defer rows.Close()

	out := []*Club{}
	for rows.Next() {
		club, err := r.scanClub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, club)
	}
	return out, rows.Err()
}

// Update applies a partial update and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdateClubRequest) (*Club, error) {
	club, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(club)

	memberships, err := json.Marshal(membershipsOrEmpty(club.MembershipTypes))
	if err != nil {
		return nil, fmt.Errorf("clubs: marshal membership types: %w", err)
	}

	query := `
		UPDATE clubs
		SET name = $2, email = $3, phone = $4, country = $5,
			matchi_booking_url = $6, membership_types = $7, assistant_id = $8,
			custom_greeting = $9, is_active = $10, manager_name = $11,
			manager_phone = $12, manager_email = $13, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		id,
		club.Name,
		club.Email,
		club.Phone,
		club.Country,
		club.MatchiBookingURL,
		memberships,
		club.AssistantID,
		club.CustomGreeting,
		club.IsActive,
		club.ManagerName,
		club.ManagerPhone,
		club.ManagerEmail,
	).Scan(&club.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("clubs: update failed: %w", err)
	}
	return club, nil
}

func (r *PostgresRepository) scanClub(row pgx.Row) (*Club, error) {
	var club Club
	var memberships []byte
	if err := row.Scan(
		&club.ID,
		&club.Name,
		&club.Slug,
		&club.Email,
		&club.Phone,
		&club.Country,
		&club.MatchiBookingURL,
		&memberships,
		&club.AssistantID,
		&club.CustomGreeting,
		&club.IsActive,
		&club.ManagerName,
		&club.ManagerPhone,
		&club.ManagerEmail,
		&club.CreatedAt,
		&club.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("clubs: select failed: %w", err)
	}
	if err := json.Unmarshal(memberships, &club.MembershipTypes); err != nil {
		return nil, fmt.Errorf("clubs: decode membership types: %w", err)
	}
	return &club, nil
}

func membershipsOrEmpty(m []MembershipType) []MembershipType {
	if m == nil {
		return []MembershipType{}
	}
	return m
}
