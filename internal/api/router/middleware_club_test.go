package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubvoice/clubvoice/internal/tenancy"
)

func TestClubScopeHeaderFillsContext(t *testing.T) {
	var got string
	handler := clubScopeHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = tenancy.ClubIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("X-Club-Id", " club-7 ")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "club-7" {
		t.Fatalf("club id = %q, want club-7", got)
	}
}

func TestClubScopeHeaderDoesNotOverrideToken(t *testing.T) {
	var got string
	handler := clubScopeHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = tenancy.ClubIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req = req.WithContext(tenancy.WithClubID(req.Context(), "club-1"))
	req.Header.Set("X-Club-Id", "club-9")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "club-1" {
		t.Fatalf("club id = %q, want club-1 from token scope", got)
	}
}

func TestClubScopeHeaderOptional(t *testing.T) {
	scoped := true
	handler := clubScopeHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, scoped = tenancy.ClubIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if scoped {
		t.Fatalf("expected no club scope without header")
	}
}
