package conversations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedConversation(t *testing.T, repo Repository, clubID, callID string, status Status) *Conversation {
	t.Helper()
	c := &Conversation{
		ID:         uuid.New().String(),
		ClubID:     clubID,
		CustomerID: uuid.New().String(),
		CallID:     callID,
		Status:     StatusActive,
		StartedAt:  time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	if status != StatusActive {
		c.Status = status
		if err := repo.Update(context.Background(), c); err != nil {
			t.Fatalf("seed status: %v", err)
		}
	}
	return c
}

func TestHandlerListConversations(t *testing.T) {
	repo := NewInMemoryRepository()
	seedConversation(t, repo, "club-1", "call-1", StatusActive)
	seedConversation(t, repo, "club-1", "call-2", StatusCompleted)
	seedConversation(t, repo, "club-2", "call-3", StatusActive)

	router := NewHandler(repo, nil).Routes()

	req := httptest.NewRequest(http.MethodGet, "/?club_id=club-1&status=completed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Conversations []*Conversation `json:"conversations"`
		Total         int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Conversations) != 1 {
		t.Fatalf("expected one completed conversation, got %+v", resp)
	}
	if resp.Conversations[0].CallID != "call-2" {
		t.Fatalf("expected call-2, got %s", resp.Conversations[0].CallID)
	}
}

func TestHandlerGetConversationWithTranscript(t *testing.T) {
	repo := NewInMemoryRepository()
	c := seedConversation(t, repo, "club-1", "call-1", StatusActive)

	for i, content := range []string{"Hi, I want to book a court", "Of course, which day?"} {
		role := RoleCustomer
		if i == 1 {
			role = RoleAssistant
		}
		if err := repo.AddMessage(context.Background(), &Message{
			ID:             uuid.New().String(),
			ConversationID: c.ID,
			Role:           role,
			Content:        content,
		}); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	router := NewHandler(repo, nil).Routes()
	req := httptest.NewRequest(http.MethodGet, "/"+c.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		ID       string     `json:"id"`
		Messages []*Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != c.ID {
		t.Fatalf("expected conversation %s, got %s", c.ID, resp.ID)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].Role != RoleCustomer {
		t.Fatalf("expected ordered transcript, got %+v", resp.Messages)
	}
}

func TestHandlerGetConversationMissing(t *testing.T) {
	router := NewHandler(NewInMemoryRepository(), nil).Routes()

	req := httptest.NewRequest(http.MethodGet, "/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
