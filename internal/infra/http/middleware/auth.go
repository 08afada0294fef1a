package middleware

import (
	"context"
	"net/http"
	"strings"
)

// Identity is what the token resolves to. Capabilities are explicit
// fields set at the identity boundary, never derived from user-controlled
// data like email contents.
type Identity struct {
	UserID string
	Admin  bool
}

// IdentityResolver maps an opaque bearer token to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

type contextKey string

const identityKey contextKey = "identity"

// Auth rejects requests without a resolvable bearer token and stores the
// identity on the request context.
func Auth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the authenticated identity, nil on public routes.
func IdentityFrom(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}
