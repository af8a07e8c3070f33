// Package web provides the HTTP server and handlers for the report
// generator's form UI.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cvasconcelos/relatorio-rural/internal/config"
	"github.com/cvasconcelos/relatorio-rural/internal/refine"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the form UI HTTP server. Each submission cycle is independent;
// nothing is kept between requests.
type Server struct {
	cfg       config.Config
	refiner   *refine.Client // nil when the API key is not configured
	templates *template.Template
	mux       *http.ServeMux
}

// NewServer creates a web server from the process configuration. A missing
// API key is not an error here: the server starts and shows a configuration
// notice instead of the form.
func NewServer(cfg config.Config) (*Server, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		templates: tmpl,
		mux:       http.NewServeMux(),
	}

	if cfg.APIKey != "" {
		refiner, err := refine.NewClient(cfg.APIKey, cfg.Model, cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("creating refinement client: %w", err)
		}
		s.refiner = refiner
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("/", s.handleForm)
	s.mux.HandleFunc("/gerar", s.handleGenerate)
	s.mux.HandleFunc("/download", s.handleDownload)
	s.mux.HandleFunc("/health", s.handleHealth)

	return s, nil
}

// ServeHTTP implements http.Handler. Submission cycles (everything except
// assets and the liveness probe) are logged with their outcome, which is the
// only per-request record this tool keeps.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/health" {
		s.mux.ServeHTTP(w, r)
		return
	}

	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(sw, r)

	level := slog.LevelInfo
	switch {
	case sw.status >= 500:
		level = slog.LevelError
	case sw.status == http.StatusUnprocessableEntity:
		// Rejected submissions are routine, not warnings.
		level = slog.LevelInfo
	case sw.status >= 400:
		level = slog.LevelWarn
	}

	slog.Log(r.Context(), level, "submission cycle",
		"method", r.Method,
		"path", r.URL.Path,
		"status", sw.status,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
}

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Gerador de histórico on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s)
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
