package core

import (
	"context"
	"net/http"
	"strconv"
)

type ContextKey string

const SessionContextKey ContextKey = "session"

// ContextSession carries the authenticated caller through the request
// context. The identity service in front of the engine is trusted to have
// validated the user - only the numeric id reaches this process.
type ContextSession struct {
	UserID int64
}

func Session(ctx context.Context) ContextSession {
	rawVal := ctx.Value(SessionContextKey)
	if rawVal == nil {
		return ContextSession{}
	}

	session, ok := rawVal.(ContextSession)
	if !ok {
		return ContextSession{}
	}

	return session
}

const UserIDHeader = "X-User-Id"

// IdentityMiddleware reads the trusted user id header set by the identity
// service and stores it in the request context.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
		if err != nil || userID < 1 {
			WriteUnauthorized(w, r, nil)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, ContextSession{UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
