package clubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for club storage
type Repository interface {
	Create(ctx context.Context, req *CreateClubRequest) (*Club, error)
	GetByID(ctx context.Context, id string) (*Club, error)
	// GetByAssistantID resolves the tenant for an inbound call. Inactive
	// clubs are not returned.
	GetByAssistantID(ctx context.Context, assistantID string) (*Club, error)
	List(ctx context.Context) ([]*Club, error)
	Update(ctx context.Context, id string, req *UpdateClubRequest) (*Club, error)
}

// InMemoryRepository is an in-memory implementation of Repository used in
// tests and local development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	clubs map[string]*Club
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{clubs: make(map[string]*Club)}
}

// Create creates a new club in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateClubRequest) (*Club, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	club := &Club{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Slug:             req.Slug,
		Email:            req.Email,
		Phone:            req.Phone,
		Country:          req.Country,
		MatchiBookingURL: req.MatchiBookingURL,
		MembershipTypes:  req.MembershipTypes,
		AssistantID:      req.AssistantID,
		CustomGreeting:   req.CustomGreeting,
		IsActive:         true,
		ManagerName:      req.ManagerName,
		ManagerPhone:     req.ManagerPhone,
		ManagerEmail:     req.ManagerEmail,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	r.mu.Lock()
	r.clubs[club.ID] = club
	r.mu.Unlock()

	return cloneClub(club), nil
}

// GetByID retrieves a club by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	club, ok := r.clubs[id]
	if !ok {
		return nil, ErrClubNotFound
	}
	return cloneClub(club), nil
}

// GetByAssistantID retrieves an active club by its assistant identifier
func (r *InMemoryRepository) GetByAssistantID(ctx context.Context, assistantID string) (*Club, error) {
	if assistantID == "" {
		return nil, ErrClubNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, club := range r.clubs {
		if club.AssistantID == assistantID && club.IsActive {
			return cloneClub(club), nil
		}
	}
	return nil, ErrClubNotFound
}

// List returns all clubs ordered by name
func (r *InMemoryRepository) List(ctx context.Context) ([]*Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Club, 0, len(r.clubs))
	for _, club := range r.clubs {
		out = append(out, cloneClub(club))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update applies a partial update to a club
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpdateClubRequest) (*Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	club, ok := r.clubs[id]
	if !ok {
		return nil, ErrClubNotFound
	}
	req.Apply(club)
	club.UpdatedAt = time.Now().UTC()
	return cloneClub(club), nil
}

func cloneClub(c *Club) *Club {
	cp := *c
	if c.MembershipTypes != nil {
		cp.MembershipTypes = append([]MembershipType(nil), c.MembershipTypes...)
	}
	return &cp
}
