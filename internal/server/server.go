// Package server is the mdview daemon: it renders markdown files from
// the served directory and exposes the viewer pages and JSON API.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/mdview/internal/clipboard"
	"github.com/ziadkadry99/mdview/internal/history"
	"github.com/ziadkadry99/mdview/internal/library"
	"github.com/ziadkadry99/mdview/internal/render"
	"github.com/ziadkadry99/mdview/internal/view"
	"github.com/ziadkadry99/mdview/internal/watch"
)

// Config holds server configuration.
type Config struct {
	Host              string
	Port              int
	Dir               string // directory being served
	RefreshIntervalMs int    // pushed to viewer pages; 0 disables periodic refresh
	AllowAll          bool   // allow all CORS origins (dev mode)
}

// Server ties the library, renderer, history store, watcher, and
// clipboard adapter behind one router.
type Server struct {
	cfg        Config
	lib        *library.Library
	renderer   *render.Renderer
	hist       *history.Store
	watcher    *watch.Watcher
	clip       *clipboard.Copier
	pipeline   *view.Pipeline
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over the given library. hist and watcher may be
// nil; the corresponding surfaces degrade gracefully.
func New(cfg Config, lib *library.Library, hist *history.Store, watcher *watch.Watcher) *Server {
	clip := clipboard.New()
	s := &Server{
		cfg:      cfg,
		lib:      lib,
		renderer: render.New(),
		hist:     hist,
		watcher:  watcher,
		clip:     clip,
		pipeline: view.NewPipeline(clip, nil),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Pages
	r.Get("/", s.handleIndex)
	r.Get("/view/{filename}", s.handleView)

	// API
	r.Get("/api/files", s.handleListFiles)
	r.Get("/api/file/{filename}/content", s.handleFileContent)
	r.Get("/api/file/{filename}/markdown", s.handleFileMarkdown)
	r.Get("/api/file/{filename}/html", s.handleFileHTML)
	r.Get("/api/history", s.handleHistory)
	r.Post("/api/clipboard", s.handleClipboard)
	r.Get("/api/watch", s.handleWatch)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured host and port.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("mdview serving %s on http://%s", s.cfg.Dir, addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
