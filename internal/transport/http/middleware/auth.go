package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/edumon-sync/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

// tokenQueryParam carries the bearer token for clients that cannot set
// headers, such as a browser EventSource on /v1/events.
const tokenQueryParam = "access_token"

// Auth validates the local API bearer token and injects its claims into the
// request context. A nil provider leaves the routes open.
func Auth(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if provider == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		tok, found := strings.CutPrefix(h, "Bearer ")
		return tok, found && tok != ""
	}
	if r.Method == http.MethodGet {
		if tok := r.URL.Query().Get(tokenQueryParam); tok != "" {
			return tok, true
		}
	}
	return "", false
}

// ClaimsFromContext returns the claims of the calling client.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}
