package tenancy

import (
	"context"
	"testing"
)

func TestWithClubIDAndClubIDFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithClubID(ctx, "club-123")

	got, ok := ClubIDFromContext(ctx)
	if !ok {
		t.Fatalf("expected club id to be present")
	}
	if got != "club-123" {
		t.Fatalf("expected club-123, got %s", got)
	}
}

func TestClubIDFromContext_EmptyOrMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := ClubIDFromContext(ctx); ok {
		t.Fatalf("expected missing club id to return false")
	}

	ctx = context.WithValue(ctx, clubKey, 42)
	if _, ok := ClubIDFromContext(ctx); ok {
		t.Fatalf("expected non-string club id to return false")
	}

	ctx = WithClubID(context.Background(), "")
	if _, ok := ClubIDFromContext(ctx); ok {
		t.Fatalf("expected empty club id to return false")
	}
}
