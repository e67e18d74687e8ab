package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/webb-rtk/shintek/internal/domain"
	"github.com/webb-rtk/shintek/internal/domain/model"
)

type rolePayload struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	SystemPrompt model.SeedPrompt `json:"systemPrompt"`
	Model        string           `json:"model"`
	StickerReply string           `json:"stickerReply,omitempty"`
}

func toPayload(p *model.RoleProfile) rolePayload {
	return rolePayload{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		SystemPrompt: p.SystemPrompt,
		Model:        p.Model,
		StickerReply: p.StickerReply,
	}
}

func (p rolePayload) toProfile() *model.RoleProfile {
	return &model.RoleProfile{
		Name:         p.Name,
		Description:  p.Description,
		SystemPrompt: p.SystemPrompt,
		Model:        p.Model,
		StickerReply: p.StickerReply,
	}
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roleUC.ListRoles(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]rolePayload, 0, len(roles))
	for _, p := range roles {
		out = append(out, toPayload(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	p, err := s.roleUC.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(p))
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var body rolePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := s.roleUC.CreateRole(r.Context(), body.ID, body.toProfile()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": body.ID})
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var body rolePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	roleID := chi.URLParam(r, "roleID")
	if err := s.roleUC.UpdateRole(r.Context(), roleID, body.toProfile()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": roleID})
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := s.roleUC.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDefaultRole(w http.ResponseWriter, r *http.Request) {
	p, err := s.roleUC.GetDefaultRole(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(p))
}

func (s *Server) handleSetDefaultRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := s.roleUC.SetDefaultRole(r.Context(), body.ID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": body.ID})
}

func (s *Server) handleSetMapping(set func(ctx context.Context, id, roleID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RoleID string `json:"roleId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RoleID == "" {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if err := set(r.Context(), chi.URLParam(r, "id"), body.RoleID); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRemoveMapping(remove func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleResolve answers "which persona applies to this identity tuple" for
// operators debugging precedence: ?user=..&group=..&bot=..
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := s.roleUC.ResolveRole(r.Context(), q.Get("user"), q.Get("group"), q.Get("bot"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(p))
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionUC.Stats())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoleID string `json:"roleId"`
	}
	// Body is optional; an empty one creates a session under the implicit default.
	_ = json.NewDecoder(r.Body).Decode(&body)
	id := s.sessionUC.CreateSession(body.RoleID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionUC.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       sess.ID,
		"roleId":   sess.RoleID,
		"messages": sess.Messages,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessionUC.DeleteSession(chi.URLParam(r, "sessionID")) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSessions(w http.ResponseWriter, r *http.Request) {
	s.sessionUC.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoleNotFound), errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrRoleAlreadyExists), errors.Is(err, domain.ErrDefaultRoleProtected):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error().Err(err).Msg("admin api internal error")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
