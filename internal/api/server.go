package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/warden/internal/autopilot"
	"github.com/MikeSquared-Agency/warden/internal/engine"
)

type Server struct {
	router *chi.Mux
	http   *http.Server
	engine *engine.Engine
}

func NewServer(port int, apiToken string, eng *engine.Engine) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		http:   &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router},
		engine: eng,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Get("/health", s.tenantHealth)
		r.Get("/autopilot", s.autopilotState)
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Put("/autopilot/override", s.setOverride)
			r.Delete("/autopilot/override", s.clearOverride)
		})
	})

	return s
}

func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// BearerAuthMiddleware rejects requests whose Authorization header does
// not carry the configured token. An empty token disables the check,
// which is only appropriate for local development.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				if got != token {
					writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tenantHealth handles GET /api/v1/tenants/{tenantID}/health.
func (s *Server) tenantHealth(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	rep, err := s.engine.GetHealth(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no signals for tenant %s", tenantID))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// autopilotState handles GET /api/v1/tenants/{tenantID}/autopilot.
func (s *Server) autopilotState(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	st, err := s.engine.GetAutopilotState(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("evaluate tenant %s: %v", tenantID, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type overrideRequest struct {
	Mode     string `json:"mode"`
	Reason   string `json:"reason"`
	Operator string `json:"operator"`
}

// setOverride handles PUT /api/v1/tenants/{tenantID}/autopilot/override.
func (s *Server) setOverride(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Reason == "" || req.Operator == "" {
		writeError(w, http.StatusBadRequest, "reason and operator are required")
		return
	}

	st, err := s.engine.SetOverride(r.Context(), tenantID, req.Mode, req.Reason, req.Operator)
	if err != nil {
		var ime *autopilot.InvalidModeError
		if errors.As(err, &ime) {
			writeError(w, http.StatusUnprocessableEntity, ime.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// clearOverride handles DELETE /api/v1/tenants/{tenantID}/autopilot/override.
// Clearing when no override is active succeeds: callers clear defensively.
func (s *Server) clearOverride(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	st, err := s.engine.ClearOverride(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
