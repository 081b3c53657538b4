package middlewares

import (
	"net/http"
	"strconv"

	"github.com/go-chi/oauth"
)

// Authenticated rejects requests without a valid bearer token.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return oauth.Authorize(secret, nil)
}

// MaybeAuthenticated validates a bearer token when one is present but
// lets anonymous requests through. Public endpoints use it so they can
// still resolve the actor's role and response history when signed in.
func MaybeAuthenticated(secret string) func(http.Handler) http.Handler {
	authorize := oauth.Authorize(secret, nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authorize(next).ServeHTTP(w, r)
		})
	}
}

// UserID returns the authenticated actor's id, zero when anonymous.
func UserID(r *http.Request) int {
	claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return 0
	}
	id, err := strconv.Atoi(claims["user_id"])
	if err != nil {
		return 0
	}
	return id
}

// Username returns the authenticated actor's username, empty when anonymous.
func Username(r *http.Request) string {
	claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return ""
	}
	return claims["username"]
}
