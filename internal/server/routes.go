package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/indexboard/internal/common"
)

// registerRoutes sets up all routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Pages
	mux.HandleFunc("/", s.handleDashboardPage)
	mux.HandleFunc("/static/", s.handleStatic)

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Market data
	mux.HandleFunc("/api/indices", s.handleIndexList)
	mux.HandleFunc("/api/indices/", s.routeIndices)
	mux.HandleFunc("/api/movers", s.handleMovers)

	// Dashboard state
	mux.HandleFunc("/api/dashboard", s.handleDashboardView)
	mux.HandleFunc("/api/dashboard/select", s.handleDashboardSelect)
	mux.HandleFunc("/api/dashboard/export/companies", s.handleExportCompanies)
	mux.HandleFunc("/api/dashboard/export/movers", s.handleExportMovers)
	mux.HandleFunc("/api/dashboard/movers/chart.png", s.handleMoversChart)
}

// routeIndices dispatches /api/indices/{id}/{action}.
func (s *Server) routeIndices(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/indices/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch parts[1] {
	case "companies":
		s.handleIndexCompanies(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
