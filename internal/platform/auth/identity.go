// Package auth consumes the identity headers set by the API gateway after
// token validation. Token verification itself happens upstream; this service
// trusts X-User-ID and X-User-Roles as forwarded.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/megamart/order-payment-service/internal/platform/httpx"
)

// RoleAdmin is the role forwarded by the gateway for administrative users.
const RoleAdmin = "ROLE_ADMIN"

type contextKey string

const identityContextKey contextKey = "github.com/megamart/order-payment-service/internal/platform/auth/identity"

// Identity is the caller as asserted by the gateway headers.
type Identity struct {
	UserID int64
	Roles  []string
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// WithIdentity stores the identity on the context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity, if one was asserted.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// HeaderIdentityMiddleware parses the gateway identity headers. Requests
// without the headers pass through unauthenticated; access control happens at
// the route level.
func HeaderIdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			rawRoles := strings.TrimSpace(r.Header.Get("X-User-Roles"))
			if rawID == "" || rawRoles == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			var roles []string
			for _, role := range strings.Split(rawRoles, ",") {
				if trimmed := strings.TrimSpace(role); trimmed != "" {
					roles = append(roles, trimmed)
				}
			}

			ctx := WithIdentity(r.Context(), &Identity{UserID: userID, Roles: roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose identity lacks the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || !identity.HasRole(RoleAdmin) {
			httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "admin role required", http.StatusForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}
