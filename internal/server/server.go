// Package server is the local development server: it binds the project
// configuration to the planning pipeline over a small HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nxc1802/REMB/pkg/config"
	"github.com/nxc1802/REMB/pkg/pipeline"
	"github.com/nxc1802/REMB/pkg/render"
)

// Server serves layouts for one project directory.
type Server struct {
	projectPath string
	port        int
	logger      *log.Logger

	mu     sync.Mutex
	cached *pipeline.Layout
}

// New creates a server for the given project directory.
func New(projectPath string, port int, logger *log.Logger) *Server {
	return &Server{
		projectPath: projectPath,
		port:        port,
		logger:      logger,
	}
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/layout", s.handleLayout)
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/render", s.handleRender)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("server starting", "addr", fmt.Sprintf("http://localhost%s", addr), "project", s.projectPath)
	return http.ListenAndServe(addr, mux)
}

// plan runs the pipeline for the project, reusing the last result until a
// POST /api/plan invalidates it.
func (s *Server) plan(ctx context.Context) (*pipeline.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}
	project, err := config.LoadProject(s.projectPath)
	if err != nil {
		return nil, err
	}
	planner, err := pipeline.New(project.Config, s.logger)
	if err != nil {
		return nil, err
	}
	result, err := planner.RunProject(ctx, project)
	if err != nil {
		return result, err
	}
	s.cached = result
	return result, nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	result, err := s.plan(r.Context())
	if err != nil {
		s.writeError(w, err, result)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	result, err := s.plan(r.Context())
	if err != nil {
		s.writeError(w, err, result)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	project, err := config.LoadProject(s.projectPath)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, project.Config)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	result, err := s.plan(r.Context())
	if err != nil {
		s.writeError(w, err, result)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	render.WriteSVG(w, result, render.Options{})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "err", err)
	}
}

// writeError returns the failed layout when one exists so clients see the
// fatal error code, otherwise a plain message.
func (s *Server) writeError(w http.ResponseWriter, err error, failed *pipeline.Layout) {
	s.logger.Error("request failed", "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if failed != nil {
		json.NewEncoder(w).Encode(failed)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
