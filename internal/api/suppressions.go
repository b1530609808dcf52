package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codewithboateng/dockscout/internal/edgecase"
)

type suppressionRequest struct {
	EdgeID  string `json:"edge_id"`
	Repo    string `json:"repo"`
	Reason  string `json:"reason"`
	Expires string `json:"expires"` // RFC 3339, optional
}

func (s *Server) handleListSuppressions(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"
	items, err := s.DB.ListSuppressions(activeOnly)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateSuppression(w http.ResponseWriter, r *http.Request) {
	var req suppressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.err(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.EdgeID = strings.TrimSpace(req.EdgeID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.EdgeID == "" || req.Reason == "" {
		s.err(w, http.StatusBadRequest, "edge_id and reason required")
		return
	}
	if _, ok := edgecase.Get(req.EdgeID); !ok {
		s.err(w, http.StatusBadRequest, "unknown edge_id: "+req.EdgeID)
		return
	}

	var expires time.Time
	if req.Expires != "" {
		t, err := time.Parse(time.RFC3339, req.Expires)
		if err != nil {
			s.err(w, http.StatusBadRequest, "expires must be RFC 3339")
			return
		}
		expires = t
	}

	user, _ := userFromCtx(r.Context())
	id, err := s.DB.CreateSuppression(req.EdgeID, req.Repo, req.Reason, user.Username, expires)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleRevokeSuppression(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.err(w, http.StatusBadRequest, "invalid suppression id")
		return
	}
	if err := s.DB.RevokeSuppression(id); err != nil {
		s.err(w, http.StatusNotFound, "suppression not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
