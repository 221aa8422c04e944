package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clubvoice/clubvoice/internal/tenancy"
)

type contextKey string

const staffClaimsKey contextKey = "staffClaims"

// Staff roles, broadest first. A super admin sees every club; the other
// roles are pinned to the club baked into their token.
const (
	RoleSuperAdmin = "super_admin"
	RoleClubAdmin  = "club_admin"
	RoleClubStaff  = "club_staff"
)

// StaffClaims is the token payload for staff API access.
type StaffClaims struct {
	jwt.RegisteredClaims
	Role   string `json:"role"`
	ClubID string `json:"club_id,omitempty"`
}

func validRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleClubAdmin, RoleClubStaff:
		return true
	}
	return false
}

// StaffJWT enforces an HMAC-signed bearer token on the staff API. Tokens
// carry a role and, for club-scoped roles, the club they belong to; that
// club id is placed in the request context so handlers scope their
// queries without trusting query parameters.
func StaffJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "staff auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")

			claims := &StaffClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if !validRole(claims.Role) {
				http.Error(w, "invalid role", http.StatusForbidden)
				return
			}
			if claims.Role != RoleSuperAdmin && claims.ClubID == "" {
				http.Error(w, "token missing club scope", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), staffClaimsKey, claims)
			if claims.ClubID != "" {
				ctx = tenancy.WithClubID(ctx, claims.ClubID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffClaimsFromContext returns the authenticated staff claims if present.
func StaffClaimsFromContext(ctx context.Context) (*StaffClaims, bool) {
	claims, ok := ctx.Value(staffClaimsKey).(*StaffClaims)
	return claims, ok
}

// RequireRole gates a route group to the listed roles. Super admins
// always pass.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := StaffClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "missing staff claims", http.StatusUnauthorized)
				return
			}
			if claims.Role != RoleSuperAdmin {
				if _, ok := allowed[claims.Role]; !ok {
					http.Error(w, "insufficient role", http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
