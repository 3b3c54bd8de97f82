package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/indexboard/internal/models"
	"github.com/bobmcallan/indexboard/internal/services/dashboard"
)

// parseTimeFrameParam reads ?timeframe=, defaulting to daily when absent.
func parseTimeFrameParam(w http.ResponseWriter, r *http.Request) (models.TimeFrame, bool) {
	raw := r.URL.Query().Get("timeframe")
	if strings.TrimSpace(raw) == "" {
		return models.TimeFrameDaily, true
	}
	tf, err := models.ParseTimeFrame(raw)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "timeframe must be one of daily, weekly, monthly, quarterly, yearly", "invalid_timeframe")
		return "", false
	}
	return tf, true
}

// handleIndexList handles GET /api/indices.
func (s *Server) handleIndexList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	indices, err := s.app.Catalog.List(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Index catalog list failed")
		WriteErrorWithCode(w, http.StatusBadGateway, dashboard.MsgCatalogFailed, "catalog_unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"indices": indices})
}

// handleIndexCompanies handles GET /api/indices/{id}/companies.
func (s *Server) handleIndexCompanies(w http.ResponseWriter, r *http.Request, indexID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tf, ok := parseTimeFrameParam(w, r)
	if !ok {
		return
	}
	if _, found := s.app.Catalog.Lookup(indexID); !found {
		WriteErrorWithCode(w, http.StatusNotFound, "unknown index: "+indexID, "unknown_index")
		return
	}

	data, err := s.app.Snapshots.Fetch(r.Context(), indexID, tf)
	if err != nil {
		s.logger.Warn().Err(err).Str("index", indexID).Msg("Company snapshot fetch failed")
		WriteErrorWithCode(w, http.StatusBadGateway, dashboard.MsgSnapshotFailed, "snapshot_unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, data)
}

// handleMovers handles GET /api/movers?index={id}&timeframe={tf}.
func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	indexID := strings.TrimSpace(r.URL.Query().Get("index"))
	if indexID == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "index is required", "missing_index")
		return
	}
	tf, ok := parseTimeFrameParam(w, r)
	if !ok {
		return
	}
	idx, found := s.app.Catalog.Lookup(indexID)
	if !found {
		WriteErrorWithCode(w, http.StatusNotFound, "unknown index: "+indexID, "unknown_index")
		return
	}

	movers, err := s.app.Movers.Fetch(r.Context(), idx.Name, tf)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadGateway, dashboard.MsgMoversFailed, "movers_unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, movers)
}
