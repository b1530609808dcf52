package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/codewithboateng/dockscout/internal/security"
	"github.com/codewithboateng/dockscout/internal/storage"
)

const sessionCookie = "dockscout_session"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.err(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		s.err(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, hash, err := s.UserStore.GetUserByUsername(req.Username)
	if err != nil || !security.CheckPassword(hash, req.Password) {
		// same response either way, no username probing
		s.err(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := security.NewToken(32)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "token generation failed")
		return
	}
	expires := time.Now().Add(s.sessionTTL())
	if err := s.UserStore.CreateSession(user.ID, token, expires); err != nil {
		s.err(w, http.StatusInternalServerError, "session creation failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	_ = s.UserStore.LogAudit(user.Username, "login", "", nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"role":     user.Role,
		"expires":  expires.UTC(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		_ = s.UserStore.DeleteSession(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		s.err(w, http.StatusUnauthorized, "not logged in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"role":     user.Role,
	})
}

func (s *Server) sessionTTL() time.Duration {
	if s.SessionDuration > 0 {
		return s.SessionDuration
	}
	return 24 * time.Hour
}

func (s *Server) currentUser(r *http.Request) (storage.User, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return storage.User{}, false
	}
	user, err := s.UserStore.GetSession(c.Value)
	if err != nil {
		return storage.User{}, false
	}
	return user, true
}
