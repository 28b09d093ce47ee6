package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/websocket"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
	"github.com/contratoclaro/contratoclaro/internal/config"
	"github.com/contratoclaro/contratoclaro/internal/pipeline"
)

// Server is the HTTP API server for contratoclaro.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	provider     analysis.ProviderConfig
	stats        *analysis.LLMStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, provider analysis.ProviderConfig, stats *analysis.LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		provider:     provider,
		stats:        stats,
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

	// Public endpoints. WebSocket progress is public because browser
	// clients cannot set an Authorization header on the handshake.
	r.Get("/health", s.handleHealth)
	r.Handle("/ws/{documentID}", websocket.Handler(s.streamProgress))

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/analyze/batch", s.handleBatchAnalyze)

		r.Get("/api/analysis", s.handleListAnalyses)
		r.Get("/api/analysis/{documentID}", s.handleGetAnalysis)
		r.Get("/api/analysis/{documentID}/status", s.handleAnalysisStatus)
		r.Get("/api/analysis/{documentID}/report", s.handleReport)
		r.Delete("/api/analysis/{documentID}", s.handleDeleteAnalysis)

		r.Get("/api/llm/providers", s.handleListProviders)
		r.Get("/api/llm/provider/{name}", s.handleProviderInfo)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
