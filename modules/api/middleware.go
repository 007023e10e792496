package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Identity headers injected by the upstream gateway. The gateway owns
// authentication; this service trusts its conclusions.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	roleAdmin = "admin"
)

var (
	errUnauthorized = errors.New("no resolvable user identity")
	errForbidden    = errors.New("administrative access required")
)

// requireUser rejects requests without a valid user identity.
// Absence of identity is an authorization failure, never a silent
// fall-through to the FREE plan.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(headerUserID))
		if err != nil || id == uuid.Nil {
			respondError(w, errUnauthorized)
			return
		}
		ctx := setUserToContext(r.Context(), userIdentity{
			ID:   id,
			Role: r.Header.Get(headerUserRole),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects non-admin callers before any storage is touched.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			respondError(w, errUnauthorized)
			return
		}
		if user.Role != roleAdmin {
			respondError(w, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
