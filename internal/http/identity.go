package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"splitledger/internal/core"
)

// UserIDHeader carries the caller identity, set by the trusted gateway in
// front of this service.
const UserIDHeader = "X-User-ID"

type callerKey struct{}

// parseUserID accepts a positive decimal id.
func parseUserID(raw string) (core.UserID, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return core.UserID(id), true
}

// requireCaller rejects requests without a valid identity header and stores
// the caller id in the request context.
func requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUserID(r.Header.Get(UserIDHeader))
		if !ok {
			writeError(w, r, errUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// caller returns the id stored by requireCaller.
func caller(r *http.Request) core.UserID {
	id, _ := r.Context().Value(callerKey{}).(core.UserID)
	return id
}
