package api

import (
	"context"
	"net/http"

	"github.com/codewithboateng/dockscout/internal/storage"
)

type ctxKey int

const userKey ctxKey = 0

func userFromCtx(ctx context.Context) (storage.User, bool) {
	u, ok := ctx.Value(userKey).(storage.User)
	return u, ok
}

func withAuth(s *Server, next http.HandlerFunc, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(r)
		if !ok {
			s.err(w, http.StatusUnauthorized, "authentication required")
			return
		}
		_ = s.UserStore.LogAudit(user.Username, action, r.URL.Path, nil)
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func withAdmin(s *Server, next http.HandlerFunc, action string) http.HandlerFunc {
	return withAuth(s, func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromCtx(r.Context())
		if user.Role != "admin" {
			s.err(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}, action)
}
