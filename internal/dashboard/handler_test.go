package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/clubvoice/clubvoice/internal/tenancy"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

func expectWindowedStats(mock sqlmock.Sqlmock, clubID string, start, end time.Time) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM conversations WHERE club_id = \$1 AND started_at >= \$2 AND started_at < \$3`).
		WithArgs(clubID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM bookings WHERE club_id = \$1 AND created_at >= \$2 AND created_at < \$3 GROUP BY status`).
		WithArgs(clubID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pending", 2))

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM notifications WHERE club_id = \$1 AND created_at >= \$2 AND created_at < \$3 GROUP BY status`).
		WithArgs(clubID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("sent", 5))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE club_id = \$1 AND status = 'lead' AND created_at >= \$2 AND created_at < \$3`).
		WithArgs(clubID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
}

func TestGetStatsWindowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
	expectWindowedStats(mock, "club-1", start, end)

	handler := NewHandler(NewStatsRepository(db), logging.Default())
	req := httptest.NewRequest(http.MethodGet,
		"/dashboard/stats?club_id=club-1&start=2026-08-01T00:00:00Z&end=2026-08-08T00:00:00Z", nil)
	rr := httptest.NewRecorder()

	handler.GetStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var stats Stats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.ClubID != "club-1" {
		t.Fatalf("club_id = %q, want club-1", stats.ClubID)
	}
	if stats.ConversationsStarted != 6 {
		t.Fatalf("conversations = %d, want 6", stats.ConversationsStarted)
	}
	if stats.BookingsByStatus["pending"] != 2 {
		t.Fatalf("pending bookings = %d, want 2", stats.BookingsByStatus["pending"])
	}
	if stats.NotificationsByStatus["sent"] != 5 {
		t.Fatalf("sent notifications = %d, want 5", stats.NotificationsByStatus["sent"])
	}
	if stats.NewLeads != 3 {
		t.Fatalf("new leads = %d, want 3", stats.NewLeads)
	}
	if stats.PeriodStart != "2026-08-01T00:00:00Z" || stats.PeriodEnd != "2026-08-08T00:00:00Z" {
		t.Fatalf("unexpected period window: %s - %s", stats.PeriodStart, stats.PeriodEnd)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetStatsTokenScopeWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
	expectWindowedStats(mock, "club-9", start, end)

	handler := NewHandler(NewStatsRepository(db), logging.Default())
	req := httptest.NewRequest(http.MethodGet,
		"/dashboard/stats?club_id=club-1&start=2026-08-01T00:00:00Z&end=2026-08-08T00:00:00Z", nil)
	req = req.WithContext(tenancy.WithClubID(req.Context(), "club-9"))
	rr := httptest.NewRecorder()

	handler.GetStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetStatsRequiresClub(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	handler := NewHandler(NewStatsRepository(db), logging.Default())
	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	rr := httptest.NewRecorder()

	handler.GetStats(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetStatsWindowValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	handler := NewHandler(NewStatsRepository(db), logging.Default())

	tests := []struct {
		name  string
		query string
	}{
		{"start without end", "club_id=club-1&start=2026-08-01T00:00:00Z"},
		{"bad start format", "club_id=club-1&start=yesterday&end=2026-08-08T00:00:00Z"},
		{"end before start", "club_id=club-1&start=2026-08-08T00:00:00Z&end=2026-08-01T00:00:00Z"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/dashboard/stats?"+tc.query, nil)
			rr := httptest.NewRecorder()

			handler.GetStats(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetStatsQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM conversations WHERE club_id = \$1`).
		WithArgs("club-1").
		WillReturnError(errors.New("deadline exceeded"))

	handler := NewHandler(NewStatsRepository(db), logging.Default())
	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats?club_id=club-1", nil)
	rr := httptest.NewRecorder()

	handler.GetStats(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
