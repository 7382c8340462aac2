// Package web provides the HTTP server and handlers for catalog reads and
// bulk imports.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/bizdesk/internal/config"
	"github.com/JonMunkholm/bizdesk/internal/core"
	"github.com/JonMunkholm/bizdesk/internal/web/middleware"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server of the application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	health  HealthChecker
	router  *chi.Mux
	server  *http.Server

	limiters []*middleware.RateLimiter
}

// NewServer creates a Server. health may be nil.
func NewServer(service *core.Service, cfg *config.Config, health HealthChecker) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		health:  health,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		general := middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, 0, 0)
		s.limiters = append(s.limiters, general)
		s.router.Use(general.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.JWTAuth(s.cfg.Security.JWTSecret))

		// Reads
		r.Group(func(r chi.Router) {
			if s.cfg.Server.RequestTimeout > 0 {
				r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
			}

			r.Get("/entities", s.handleListEntities)
			r.Get("/templates/{entity}", s.handleDownloadTemplate)

			r.Get("/clients", s.handleListClients)
			r.Get("/clients/search", s.handleSearchClients)
			r.Get("/products", s.handleListProducts)
			r.Get("/products/search", s.handleSearchProducts)

			r.Get("/imports", s.handleImportHistory)
			r.Get("/imports/status", s.handleImportQueueStatus)
			r.Get("/imports/{id}", s.handleImportStatus)
			r.Get("/imports/{id}/report", s.handleImportReport)
			r.Get("/imports/{id}/errors.csv", s.handleExportErrorsCSV)
			r.Get("/imports/{id}/errors.xlsx", s.handleExportErrorsXLSX)
		})

		// Progress streams stay open for the whole run.
		r.Get("/imports/{id}/progress", s.handleImportProgress)

		// Imports carry their own timeout and a stricter rate limit.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				imports := middleware.NewRateLimiter(s.cfg.Rate.ImportLimit, 0, 0)
				s.limiters = append(s.limiters, imports)
				r.Use(imports.Handler)
			}

			r.Post("/products/bulk-import", s.handleBulkImportProducts)
			r.With(s.requireAdminFor(core.EntityClients)).Post("/clients/import", s.handleImportClients)
			r.Post("/imports/{entity}", s.handleStartImport)
			r.Post("/imports/{entity}/preview", s.handlePreview)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// requireAdminFor restricts an entity's imports to admins when the entity is
// admin-only and the restriction is enabled.
func (s *Server) requireAdminFor(entity core.Entity) func(http.Handler) http.Handler {
	info, _ := core.Get(entity)
	if !info.AdminOnly || !s.cfg.Security.RequireAdminForClientImport {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequireAdmin
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
