package middleware

import (
	"context"
	"net/http"
)

const (
	// SessionIDHeader carries the opaque session id on every session call.
	SessionIDHeader = "X-Session-Id"

	// SessionIDKey is the context key for the session id.
	SessionIDKey ContextKey = "session_id"
)

// RequireSessionID rejects requests without an X-Session-Id header before
// the core is invoked, and threads the id through the request context.
func RequireSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(SessionIDHeader)
		if sessionID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"X-Session-Id header required"}`))
			return
		}
		if err := ValidateSessionID(sessionID); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid session id"}`))
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID gets the session id from context.
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		return v.(string)
	}
	return ""
}
