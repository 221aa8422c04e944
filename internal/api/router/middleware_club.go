package router

import (
	"net/http"
	"strings"

	"github.com/clubvoice/clubvoice/internal/tenancy"
)

const clubHeader = "X-Club-Id"

// clubScopeHeader fills the tenancy context from the X-Club-Id header
// when the staff token carries no club scope. Club-scoped tokens win:
// a header on a scoped request is ignored, so staff cannot reach past
// their own club.
func clubScopeHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenancy.ClubIDFromContext(r.Context()); !ok {
			if clubID := strings.TrimSpace(r.Header.Get(clubHeader)); clubID != "" {
				r = r.WithContext(tenancy.WithClubID(r.Context(), clubID))
			}
		}
		next.ServeHTTP(w, r)
	})
}
