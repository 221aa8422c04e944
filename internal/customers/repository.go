package customers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows and pages a club's customer list.
type ListFilter struct {
	Status   Status
	Page     int
	PageSize int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 50
	}
}

// Repository defines the interface for customer storage.
type Repository interface {
	Create(ctx context.Context, req *CreateCustomerRequest) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	// FindByPhone returns the most recently created customer with the
	// exact phone number inside the club.
	FindByPhone(ctx context.Context, clubID, phone string) (*Customer, error)
	ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Customer, int, error)
	Update(ctx context.Context, id string, req *UpdateCustomerRequest) (*Customer, error)
}

// InMemoryRepository keeps customers in a map. Used by tests and as a
// fallback when no database is configured.
type InMemoryRepository struct {
	mu        sync.RWMutex
	customers map[string]*Customer
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{customers: make(map[string]*Customer)}
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateCustomerRequest) (*Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	customer := &Customer{
		ID:           uuid.New().String(),
		ClubID:       req.ClubID,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Source:       req.Source,
		Status:       req.Status,
		InterestedIn: req.InterestedIn,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	r.customers[customer.ID] = customer
	r.mu.Unlock()

	return cloneCustomer(customer), nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return cloneCustomer(customer), nil
}

func (r *InMemoryRepository) FindByPhone(ctx context.Context, clubID, phone string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Customer
	for _, c := range r.customers {
		if c.ClubID != clubID || c.Phone != phone {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, ErrCustomerNotFound
	}
	return cloneCustomer(latest), nil
}

func (r *InMemoryRepository) ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Customer, int, error) {
	filter.normalize()

	r.mu.RLock()
	var matched []*Customer
	for _, c := range r.customers {
		if c.ClubID != clubID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneCustomer(c))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*Customer{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdateCustomerRequest) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, ok := r.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	if err := req.Apply(customer); err != nil {
		return nil, err
	}
	customer.UpdatedAt = time.Now().UTC()
	return cloneCustomer(customer), nil
}

func cloneCustomer(c *Customer) *Customer {
	out := *c
	if c.LastContactAt != nil {
		t := *c.LastContactAt
		out.LastContactAt = &t
	}
	return &out
}
