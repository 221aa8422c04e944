package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by this repository.
// Declared locally so tests can substitute pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores customers in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("customers: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const customerColumns = `id, club_id, name, phone, email, source, status, interested_in, notes, last_contact_at, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, req *CreateCustomerRequest) (*Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO customers (id, club_id, name, phone, email, source, status, interested_in, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	customer := &Customer{
		ID:           id,
		ClubID:       req.ClubID,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Source:       req.Source,
		Status:       req.Status,
		InterestedIn: req.InterestedIn,
		Notes:        req.Notes,
	}
	if err := r.db.QueryRow(ctx, query,
		id,
		req.ClubID,
		req.Name,
		req.Phone,
		req.Email,
		req.Source,
		string(req.Status),
		req.InterestedIn,
		req.Notes,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt); err != nil {
		return nil, fmt.Errorf("customers: insert failed: %w", err)
	}
	return customer, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	if id == "" {
		return nil, ErrCustomerNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)
	return r.scanCustomer(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) FindByPhone(ctx context.Context, clubID, phone string) (*Customer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE club_id = $1 AND phone = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, customerColumns)
	return r.scanCustomer(r.db.QueryRow(ctx, query, clubID, phone))
}

func (r *PostgresRepository) ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Customer, int, error) {
	filter.normalize()

	countQuery := `SELECT COUNT(*) FROM customers WHERE club_id = $1 AND ($2 = '' OR status = $2)`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, clubID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("customers: count failed: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE club_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, customerColumns)
	rows, err := r.db.Query(ctx, query, clubID, string(filter.Status), filter.PageSize, (filter.Page-1)*filter.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("customers: select failed: %w", err)
	}
	defer rows.Close()

	customers := []*Customer{}
	for rows.Next() {
		var c Customer
		if err := scanCustomerRow(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("customers: scan failed: %w", err)
		}
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("customers: rows failed: %w", err)
	}
	return customers, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdateCustomerRequest) (*Customer, error) {
	customer, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(customer); err != nil {
		return nil, err
	}

	query := `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, status = $5, interested_in = $6,
		    notes = $7, last_contact_at = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		id,
		customer.Name,
		customer.Phone,
		customer.Email,
		string(customer.Status),
		customer.InterestedIn,
		customer.Notes,
		customer.LastContactAt,
	).Scan(&customer.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("customers: update failed: %w", err)
	}
	return customer, nil
}

func (r *PostgresRepository) scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	if err := scanCustomerRow(row, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("customers: select failed: %w", err)
	}
	return &c, nil
}

func scanCustomerRow(row pgx.Row, c *Customer) error {
	return row.Scan(
		&c.ID,
		&c.ClubID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.Source,
		&c.Status,
		&c.InterestedIn,
		&c.Notes,
		&c.LastContactAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}
