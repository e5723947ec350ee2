// Package server exposes the study workflow as a JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/studydeck/internal/askme"
	"github.com/TobiSchelling/studydeck/internal/auth"
	"github.com/TobiSchelling/studydeck/internal/compose"
	"github.com/TobiSchelling/studydeck/internal/database"
	"github.com/TobiSchelling/studydeck/internal/flowchart"
	"github.com/TobiSchelling/studydeck/internal/ingest"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/pipeline"
)

var md = goldmark.New()

// Deps are the collaborators the handlers call into.
type Deps struct {
	DB             *database.DB
	Auth           *auth.Service
	Pipeline       *pipeline.Pipeline
	Flowcharts     *flowchart.Generator
	AskMe          *askme.Service
	Reports        *compose.Composer
	MaxUploadBytes int64
	Log            *logger.Logger
}

// Server is the HTTP API server.
type Server struct {
	Deps
	router chi.Router

	// multipartMemory is how much of an upload is held in memory before
	// parts spill to temporary files.
	multipartMemory int64
}

// New creates a new Server.
func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = ingest.DefaultMaxBytes
	}
	if d.Reports == nil {
		d.Reports = compose.NewComposer(nil, d.Log)
	}
	s := &Server{Deps: d, router: chi.NewRouter(), multipartMemory: 32 << 20}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/register", s.handleRegister)
	r.Post("/api/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/api/me", s.handleMe)
		r.Get("/api/stats", s.handleStats)

		r.Route("/api/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleUpload)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
			r.Post("/{id}/tests", s.handleGenerateTest)
			r.Get("/{id}/results", s.handleDocumentResults)
		})

		r.Post("/api/tests/submit", s.handleSubmitTest)
		r.Get("/api/results", s.handleListResults)
		r.Get("/api/results/{id}/report", s.handleResultReport)

		r.Post("/api/flowcharts", s.handleFlowchart)
		r.Post("/api/flowcharts/regenerate", s.handleRegenerateFlowchart)
		r.Post("/api/flowcharts/export", s.handleExportFlowchart)

		r.Post("/api/ask", s.handleAsk)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

const maxJSONBody = 4 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}

// Serve runs the server on addr until ctx is canceled.
func Serve(ctx context.Context, s *Server, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info("server listening", "addr", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
