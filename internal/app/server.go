package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/api/handlers"
	appMiddleware "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/api/middlewares"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/config"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/router"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.SugaredLogger
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	dbClient core.DbClient,
	users *services.UserService,
	ingest *services.IngestService,
	askRouter *router.Router,
	log *zap.SugaredLogger,
) *Server {
	authHandler := handlers.NewAuthHandler(users, cfg.JWTSecret)
	ingestHandler := handlers.NewIngestHandler(ingest, log)
	askHandler := handlers.NewAskHandler(askRouter, log)
	adminHandler := handlers.NewAdminHandler(dbClient, cfg.CollectionName, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Universal Enterprise RAG Platform API is running."))
	})

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Post("/ingest/file", ingestHandler.IngestFile)
			protected.Post("/ingest/url", ingestHandler.IngestURL)
			protected.Delete("/ingest/source", ingestHandler.DeleteSource)
			protected.Post("/ask", askHandler.Ask)
			protected.Get("/debug/vectorstore", adminHandler.DebugVectorstore)
			protected.Get("/debug/search_term", adminHandler.DebugSearchTerm)
			protected.Post("/reset_vectorstore", adminHandler.ResetVectorstore)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	s.log.Infow("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Fatalw("server error", "error", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
