package conversations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ListFilter narrows and pages a club's conversation list.
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

// Repository defines the interface for conversation storage.
type Repository interface {
	// Create inserts the conversation; a duplicate call id is reported
	// so the tracker can return the existing row instead.
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id string) (*Conversation, error)
	GetByCallID(ctx context.Context, callID string) (*Conversation, error)
	Update(ctx context.Context, c *Conversation) error
	ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Conversation, int, error)
	AddMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)
}

// InMemoryRepository keeps conversations and their messages in maps.
type InMemoryRepository struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	byCallID      map[string]string
	messages      map[string][]*Message
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		conversations: make(map[string]*Conversation),
		byCallID:      make(map[string]string),
		messages:      make(map[string][]*Message),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, c *Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCallID[c.CallID]; exists {
		return errDuplicateCallID
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.conversations[c.ID] = cloneConversation(c)
	r.byCallID[c.CallID] = c.ID
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return cloneConversation(c), nil
}

func (r *InMemoryRepository) GetByCallID(ctx context.Context, callID string) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCallID[callID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return cloneConversation(r.conversations[id]), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, c *Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[c.ID]; !ok {
		return ErrConversationNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	r.conversations[c.ID] = cloneConversation(c)
	return nil
}

func (r *InMemoryRepository) ListByClub(ctx context.Context, clubID string, filter ListFilter) ([]*Conversation, int, error) {
	filter.normalize()

	r.mu.RLock()
	var matched []*Conversation
	for _, c := range r.conversations {
		if c.ClubID != clubID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneConversation(c))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*Conversation{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *InMemoryRepository) AddMessage(ctx context.Context, m *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[m.ConversationID]; !ok {
		return ErrConversationNotFound
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	clone := *m
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], &clone)
	return nil
}

func (r *InMemoryRepository) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[conversationID]
	out := make([]*Message, len(stored))
	for i, m := range stored {
		clone := *m
		out[i] = &clone
	}
	return out, nil
}

func cloneConversation(c *Conversation) *Conversation {
	out := *c
	if c.EndedAt != nil {
		t := *c.EndedAt
		out.EndedAt = &t
	}
	return &out
}
