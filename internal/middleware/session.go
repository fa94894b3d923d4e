// Package middleware provides HTTP middlewares for sessions, request ids and
// logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const tokenKey ctxKey = "session_token"

// SessionCookie returns a middleware that reads the session cookie named
// name and, when present and non-empty, stores its value in the request
// context. Requests without the cookie pass through unchanged: the backend
// decides whether the route needs a session.
func SessionCookie(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(name)
			if err != nil || ck.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), tokenKey, ck.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTokenFromContext returns the session token stored by SessionCookie, or
// an empty string.
func GetTokenFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(tokenKey).(string); ok {
		return s
	}
	return ""
}
