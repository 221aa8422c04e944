package bookings

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ListFilter narrows and pages a booking list.
type ListFilter struct {
	ClubID     string
	CustomerID string
	Status     Status
	From       time.Time
	To         time.Time
	Skip       int
	Limit      int
}

func (f *ListFilter) normalize() {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit < 1 || f.Limit > 500 {
		f.Limit = 100
	}
}

// Repository defines the interface for booking storage.
type Repository interface {
	// CreateIfFree inserts the booking unless an active booking of the
	// same (club, resource) overlaps its window. Overlap returns
	// *ConflictError; a confirmation code collision returns an error the
	// service retries with a fresh code.
	CreateIfFree(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]*Booking, int, error)
	Update(ctx context.Context, b *Booking) error
	// HasConflict runs the overlap test on active bookings, optionally
	// excluding one booking id (reschedules).
	HasConflict(ctx context.Context, clubID, resource string, start, end time.Time, excludeID string) (bool, error)
}

// InMemoryRepository keeps bookings in a map guarded by a mutex; the
// mutex also serializes the check+insert of CreateIfFree.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{bookings: make(map[string]*Booking)}
}

func (r *InMemoryRepository) CreateIfFree(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overlapsLocked(b.ClubID, b.ResourceName, b.StartTime, b.EndTime, "") {
		return &ConflictError{Resource: b.ResourceName}
	}
	for _, existing := range r.bookings {
		if existing.ConfirmationCode == b.ConfirmationCode {
			return errCodeCollision
		}
	}

	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Booking, int, error) {
	filter.normalize()

	r.mu.RLock()
	var matched []*Booking
	for _, b := range r.bookings {
		if filter.ClubID != "" && b.ClubID != filter.ClubID {
			continue
		}
		if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && b.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !b.StartTime.Before(filter.To) {
			continue
		}
		matched = append(matched, cloneBooking(b))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartTime.Before(matched[j].StartTime)
	})

	total := len(matched)
	if filter.Skip >= total {
		return []*Booking{}, total, nil
	}
	end := filter.Skip + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Skip:end], total, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *InMemoryRepository) HasConflict(ctx context.Context, clubID, resource string, start, end time.Time, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapsLocked(clubID, resource, start, end, excludeID), nil
}

// overlapsLocked implements the half-open interval test
// existing.start < end AND existing.end > start over active bookings.
// Callers hold the mutex.
func (r *InMemoryRepository) overlapsLocked(clubID, resource string, start, end time.Time, excludeID string) bool {
	for _, b := range r.bookings {
		if b.ID == excludeID {
			continue
		}
		if b.ClubID != clubID || b.ResourceName != resource {
			continue
		}
		if !b.Status.Active() {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			return true
		}
	}
	return false
}

func cloneBooking(b *Booking) *Booking {
	out := *b
	if b.ConfirmationSentAt != nil {
		t := *b.ConfirmationSentAt
		out.ConfirmationSentAt = &t
	}
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		out.CancelledAt = &t
	}
	return &out
}
