package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/des-work/Arcano-Desk-sub000/internal/config"
	"github.com/des-work/Arcano-Desk-sub000/internal/document"
	"github.com/des-work/Arcano-Desk-sub000/internal/gateway"
	"github.com/des-work/Arcano-Desk-sub000/internal/metrics"
	"github.com/des-work/Arcano-Desk-sub000/internal/synthesis"
)

// Server is the HTTP API server for the study guide service.
type Server struct {
	router       chi.Router
	orchestrator *synthesis.Orchestrator
	gateway      *gateway.Client
	docs         *document.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *synthesis.Orchestrator, gw *gateway.Client, docs *document.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		gateway:      gw,
		docs:         docs,
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
	r.Use(metrics.Middleware())
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleUploadDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Delete("/documents/{docID}", s.handleDeleteDocument)

		r.Post("/guides", s.handleCreateGuide)
		r.Get("/guides/{jobID}", s.handleGuideStatus)

		r.Post("/flashcards", s.handleFlashcards)

		r.Get("/gateway/status", s.handleGatewayStatus)
		r.Post("/gateway/reconnect", s.handleGatewayReconnect)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
