package notifications

import (
	"context"
	"sort"
	"sync"
)

// ListFilter narrows ListByClub results. Zero values mean "no filter".
type ListFilter struct {
	Type   string
	Status string
	Skip   int
	Limit  int
}

// Normalize clamps pagination to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Repository stores notification attempt records.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Notification, int, error)
	ListPending(ctx context.Context, clubID string) ([]*Notification, error)
	Update(ctx context.Context, n *Notification) error
	Stats(ctx context.Context, clubID string) (*Stats, error)
}

// InMemoryRepository keeps notifications in a map. Used in tests and local
// development.
type InMemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]*Notification
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{rows: make(map[string]*Notification)}
}

// Create implements Repository.
func (r *InMemoryRepository) Create(ctx context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[n.ID] = cloneNotification(n)
	return nil
}

// GetByID implements Repository.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.rows[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	return cloneNotification(n), nil
}

// ListByClub implements Repository. Results are newest first.
func (r *InMemoryRepository) ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Notification, int, error) {
	filter.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Notification
	for _, n := range r.rows {
		if n.ClubID != clubID {
			continue
		}
		if filter.Type != "" && string(n.Type) != filter.Type {
			continue
		}
		if filter.Status != "" && string(n.Status) != filter.Status {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Skip >= total {
		return nil, total, nil
	}
	end := filter.Skip + filter.Limit
	if end > total {
		end = total
	}
	page := make([]*Notification, 0, end-filter.Skip)
	for _, n := range matched[filter.Skip:end] {
		page = append(page, cloneNotification(n))
	}
	return page, total, nil
}

// ListPending implements Repository. Results are oldest first so sweeps
// drain in arrival order.
func (r *InMemoryRepository) ListPending(ctx context.Context, clubID string) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Notification
	for _, n := range r.rows {
		if n.ClubID == clubID && n.Status == StatusPending {
			matched = append(matched, cloneNotification(n))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// Update implements Repository.
func (r *InMemoryRepository) Update(ctx context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[n.ID]; !ok {
		return ErrNotificationNotFound
	}
	r.rows[n.ID] = cloneNotification(n)
	return nil
}

// Stats implements Repository.
func (r *InMemoryRepository) Stats(ctx context.Context, clubID string) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{
		ByStatus:  map[string]int{},
		ByType:    map[string]int{},
		ByChannel: map[string]int{},
	}
	for _, n := range r.rows {
		if n.ClubID != clubID {
			continue
		}
		stats.ByStatus[string(n.Status)]++
		stats.ByType[string(n.Type)]++
		stats.ByChannel[string(n.Channel)]++
		stats.Total++
	}
	return stats, nil
}

func cloneNotification(n *Notification) *Notification {
	clone := *n
	if n.SentAt != nil {
		t := *n.SentAt
		clone.SentAt = &t
	}
	if n.DeliveredAt != nil {
		t := *n.DeliveredAt
		clone.DeliveredAt = &t
	}
	return &clone
}
