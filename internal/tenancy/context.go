package tenancy

import "context"

type ctxKey string

const clubKey ctxKey = "clubvoice.club_id"

// WithClubID stores the club id in context.
func WithClubID(ctx context.Context, clubID string) context.Context {
	return context.WithValue(ctx, clubKey, clubID)
}

// ClubIDFromContext extracts the club id if present.
func ClubIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(clubKey)
	if val == nil {
		return "", false
	}
	clubID, ok := val.(string)
	return clubID, ok && clubID != ""
}
