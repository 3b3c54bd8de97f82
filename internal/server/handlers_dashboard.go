package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/bobmcallan/indexboard/internal/models"
	"github.com/bobmcallan/indexboard/internal/services/chart"
	"github.com/bobmcallan/indexboard/internal/services/dashboard"
	"github.com/bobmcallan/indexboard/internal/services/export"
)

// selectRequest is the body of POST /api/dashboard/select.
type selectRequest struct {
	IndexID   string `json:"index_id"`
	TimeFrame string `json:"timeframe"`
}

// handleDashboardView handles GET /api/dashboard.
func (s *Server) handleDashboardView(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Dashboard.View())
}

// handleDashboardSelect handles POST /api/dashboard/select.
func (s *Server) handleDashboardSelect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req selectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	tf := models.TimeFrameDaily
	if req.TimeFrame != "" {
		parsed, err := models.ParseTimeFrame(req.TimeFrame)
		if err != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_timeframe")
			return
		}
		tf = parsed
	}

	if err := s.app.Dashboard.Select(req.IndexID, tf); err != nil {
		writeSelectError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, s.app.Dashboard.View())
}

func writeSelectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrUnknownIndex):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "unknown_index")
	case errors.Is(err, dashboard.ErrInvalidTimeFrame):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_timeframe")
	case errors.Is(err, dashboard.ErrCatalogUnavailable):
		WriteErrorWithCode(w, http.StatusServiceUnavailable, dashboard.MsgCatalogFailed, "catalog_unavailable")
	default:
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// handleExportCompanies handles GET /api/dashboard/export/companies.
func (s *Server) handleExportCompanies(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view := s.app.Dashboard.View()
	data := view.Snapshot.Data
	if view.Snapshot.Status != dashboard.StatusReady || data == nil {
		WriteErrorWithCode(w, http.StatusConflict, "No company data available to export", "no_data")
		return
	}

	var buf bytes.Buffer
	if err := s.app.Exporter.WriteCompanies(&buf, data.Companies, data.Name, data.TimeFrame); err != nil {
		s.logger.Error().Err(err).Msg("Company export failed")
		WriteError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	name := export.CompaniesFileName(data.Name, data.TimeFrame, s.now().In(s.app.Location))
	WriteAttachment(w, export.ContentType, name, buf.Bytes())
}

// handleExportMovers handles GET /api/dashboard/export/movers.
func (s *Server) handleExportMovers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	movers, ok := s.heldMovers(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.app.Exporter.WriteMovers(&buf, movers); err != nil {
		if errors.Is(err, export.ErrNoData) {
			WriteErrorWithCode(w, http.StatusConflict, "No data available to export", "no_data")
			return
		}
		s.logger.Error().Err(err).Msg("Movers export failed")
		WriteError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	name := export.MoversFileName(movers.IndexName, movers.TimeFrame, s.now().In(s.app.Location))
	WriteAttachment(w, export.ContentType, name, buf.Bytes())
}

// handleMoversChart handles GET /api/dashboard/movers/chart.png.
func (s *Server) handleMoversChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	movers, ok := s.heldMovers(w)
	if !ok {
		return
	}

	png, err := chart.RenderMoversChart(movers)
	if err != nil {
		s.logger.Error().Err(err).Msg("Movers chart render failed")
		WriteError(w, http.StatusInternalServerError, "Chart render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// heldMovers returns the movers currently shown, or writes 409.
func (s *Server) heldMovers(w http.ResponseWriter) (*models.MarketMovers, bool) {
	view := s.app.Dashboard.View()
	if view.Movers.Status != dashboard.StatusReady || view.Movers.Data.Empty() {
		WriteErrorWithCode(w, http.StatusConflict, "No data available to export", "no_data")
		return nil, false
	}
	return view.Movers.Data, true
}
