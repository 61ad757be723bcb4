package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/dgallion1/jsonlens/internal/beautify"
	"github.com/dgallion1/jsonlens/internal/config"
	"github.com/dgallion1/jsonlens/internal/pipeline"
	"github.com/dgallion1/jsonlens/internal/settings"
)

// Server is the HTTP API server for jsonlens.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	beautifier   *beautify.Beautifier
	settings     *settings.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, b *beautify.Beautifier, store *settings.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		beautifier:   b,
		settings:     store,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	// Browser extensions call the API cross-origin; preflight must pass
	// before auth.
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}).Handler)

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/beautify", s.handleBeautify)
		r.Post("/api/repair", s.handleRepair)

		r.Post("/api/scan", s.handleScan)
		r.Post("/api/scan/batch", s.handleBatchScan)
		r.Get("/api/scan/{jobID}/status", s.handleScanStatus)
		r.Get("/api/scan/{jobID}/results", s.handleScanResults)

		r.Get("/api/settings", s.handleGetSettings)
		r.Put("/api/settings", s.handleUpdateSettings)
		r.Get("/api/settings/match", s.handleMatchSettings)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
