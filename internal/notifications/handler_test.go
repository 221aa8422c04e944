package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clubvoice/clubvoice/internal/tenancy"
)

func seedNotification(t *testing.T, repo Repository, clubID string, typ Type, status Status, createdAt time.Time) *Notification {
	t.Helper()
	n := &Notification{
		ID:             "n-" + string(typ) + "-" + createdAt.Format("150405.000"),
		ClubID:         clubID,
		Type:           typ,
		Channel:        ChannelSMS,
		Status:         status,
		RecipientPhone: "+46700000099",
		Message:        "hello",
		Provider:       "twilio",
		MaxRetries:     3,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if status == StatusFailed {
		n.ErrorMessage = "twilio send failed: status 500"
	}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return n
}

func TestRetryNotification(t *testing.T) {
	repo := NewInMemoryRepository()
	failed := seedNotification(t, repo, "club-1", TypeEscalation, StatusFailed, time.Now().UTC())
	handler := NewHandler(repo, nil)
	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/"+failed.ID+"/retry", "application/json", nil)
	if err != nil {
		t.Fatalf("retry request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var updated Notification
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != StatusPending {
		t.Fatalf("expected pending after retry, got %s", updated.Status)
	}
	if updated.RetryCount != 1 {
		t.Fatalf("expected retry_count 1, got %d", updated.RetryCount)
	}
	if updated.ErrorMessage != "" {
		t.Fatalf("error message should be cleared, got %q", updated.ErrorMessage)
	}

	// A pending notification is not retryable again.
	resp2, err := http.Post(srv.URL+"/"+failed.ID+"/retry", "application/json", nil)
	if err != nil {
		t.Fatalf("second retry request: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp2.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp2.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "Can only retry failed or bounced notifications" {
		t.Fatalf("unexpected error text %q", body["error"])
	}
}

func TestRetryNotificationNotFound(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil)
	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/nope/retry", "application/json", nil)
	if err != nil {
		t.Fatalf("retry request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != "Notification with ID nope not found" {
		t.Fatalf("unexpected error text %q", body["error"])
	}
}

func TestListNotificationsFilters(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Now().UTC()
	seedNotification(t, repo, "club-1", TypeEscalation, StatusSent, base)
	seedNotification(t, repo, "club-1", TypeLeadAlert, StatusFailed, base.Add(time.Second))
	seedNotification(t, repo, "club-1", TypeBookingConfirmation, StatusSent, base.Add(2*time.Second))
	seedNotification(t, repo, "club-2", TypeEscalation, StatusSent, base.Add(3*time.Second))

	handler := NewHandler(repo, nil)
	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/?club_id=club-1&status=sent")
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Notifications []*Notification `json:"notifications"`
		Total         int             `json:"total"`
		Page          int             `json:"page"`
		PageSize      int             `json:"page_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 2 || len(out.Notifications) != 2 {
		t.Fatalf("expected 2 sent rows for club-1, got total=%d len=%d", out.Total, len(out.Notifications))
	}
	for _, n := range out.Notifications {
		if n.ClubID != "club-1" || n.Status != StatusSent {
			t.Fatalf("filter leak: %+v", n)
		}
	}
	if out.Page != 1 || out.PageSize != 50 {
		t.Fatalf("unexpected pagination %d/%d", out.Page, out.PageSize)
	}
}

func TestPendingNotificationsOrderedOldestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Now().UTC()
	second := seedNotification(t, repo, "club-1", TypeLeadAlert, StatusPending, base.Add(time.Second))
	first := seedNotification(t, repo, "club-1", TypeEscalation, StatusPending, base)
	seedNotification(t, repo, "club-1", TypeBookingConfirmation, StatusSent, base)

	handler := NewHandler(repo, nil)
	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/club/club-1/pending")
	if err != nil {
		t.Fatalf("pending request: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Notifications []*Notification `json:"notifications"`
		Total         int             `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 2 {
		t.Fatalf("expected 2 pending, got %d", out.Total)
	}
	if out.Notifications[0].ID != first.ID || out.Notifications[1].ID != second.ID {
		t.Fatalf("pending not ordered oldest first: %s, %s", out.Notifications[0].ID, out.Notifications[1].ID)
	}
}

func TestNotificationStats(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Now().UTC()
	seedNotification(t, repo, "club-1", TypeEscalation, StatusSent, base)
	seedNotification(t, repo, "club-1", TypeEscalation, StatusFailed, base.Add(time.Second))
	seedNotification(t, repo, "club-1", TypeLeadAlert, StatusSent, base.Add(2*time.Second))

	handler := NewHandler(repo, nil)
	srv := httptest.NewServer(handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats/club-1")
	if err != nil {
		t.Fatalf("stats request: %v", err)
	}
	defer resp.Body.Close()
	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected total 3, got %d", stats.Total)
	}
	if stats.ByStatus["sent"] != 2 || stats.ByStatus["failed"] != 1 {
		t.Fatalf("unexpected status counts %v", stats.ByStatus)
	}
	if stats.ByType["escalation"] != 2 || stats.ByType["lead_alert"] != 1 {
		t.Fatalf("unexpected type counts %v", stats.ByType)
	}
	if stats.ByChannel["sms"] != 3 {
		t.Fatalf("unexpected channel counts %v", stats.ByChannel)
	}
}

func TestStatsDeniedForOtherClub(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats/club-2", nil)
	req = req.WithContext(tenancy.WithClubID(req.Context(), "club-1"))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "Access denied" {
		t.Fatalf("unexpected error text %q", body["error"])
	}
}
