package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/usecase"
)

// Server is the admin API: role and mapping CRUD, session administration
// and observability endpoints.
type Server struct {
	roleUC    usecase.RoleUseCase
	sessionUC usecase.SessionUseCase
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(roleUC usecase.RoleUseCase, sessionUC usecase.SessionUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		roleUC:    roleUC,
		sessionUC: sessionUC,
		auth:      auth,
		log:       &webLog,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/v1/auth/token", s.handleMintToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", s.handleListRoles)
			r.Post("/", s.handleCreateRole)
			r.Get("/{roleID}", s.handleGetRole)
			r.Put("/{roleID}", s.handleUpdateRole)
			r.Delete("/{roleID}", s.handleDeleteRole)
		})
		r.Get("/default-role", s.handleGetDefaultRole)
		r.Put("/default-role", s.handleSetDefaultRole)

		r.Route("/mappings", func(r chi.Router) {
			r.Put("/users/{id}", s.handleSetMapping(s.roleUC.SetUserRole))
			r.Delete("/users/{id}", s.handleRemoveMapping(s.roleUC.RemoveUserRole))
			r.Put("/groups/{id}", s.handleSetMapping(s.roleUC.SetGroupRole))
			r.Delete("/groups/{id}", s.handleRemoveMapping(s.roleUC.RemoveGroupRole))
			r.Put("/bots/{id}", s.handleSetMapping(s.roleUC.SetBotRole))
			r.Delete("/bots/{id}", s.handleRemoveMapping(s.roleUC.RemoveBotRole))
		})
		r.Get("/resolve", s.handleResolve)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/stats", s.handleSessionStats)
			r.Post("/", s.handleCreateSession)
			r.Delete("/", s.handleClearSessions)
			r.Get("/{sessionID}", s.handleGetSession)
			r.Delete("/{sessionID}", s.handleDeleteSession)
		})
	})

	return r
}

// authMiddleware requires a minted admin token on every API route.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleMintToken exchanges the shared admin secret for a short-lived token.
func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	if !s.auth.SecretMatches(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint()
	if err != nil {
		s.log.Error().Err(err).Msg("token mint failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
