package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/indexboard/internal/models"
	"github.com/bobmcallan/indexboard/internal/services/dashboard"
	"github.com/bobmcallan/indexboard/internal/services/export"
	tcommon "github.com/bobmcallan/indexboard/test/common"
)

func sampleFetcher() *tcommon.MockMoversFetcher {
	return &tcommon.MockMoversFetcher{Handler: func(ctx context.Context, name string, tf models.TimeFrame) (*models.MarketMovers, error) {
		return tcommon.SampleMovers(name, tf), nil
	}}
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t, sampleFetcher())

	rr := do(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(t, s, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var v map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Contains(t, v, "version")
	assert.Contains(t, v, "build")
	assert.Contains(t, v, "commit")

	rr = do(t, s, http.MethodPost, "/api/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestIndexList(t *testing.T) {
	s := newTestServer(t, sampleFetcher())

	rr := do(t, s, http.MethodGet, "/api/indices", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Indices []models.IndexDescriptor `json:"indices"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Indices, 8)
	assert.Equal(t, models.IndexDescriptor{ID: "nifty50", Name: "NIFTY 50"}, resp.Indices[0])
}

func TestIndexCompanies(t *testing.T) {
	s := newTestServer(t, sampleFetcher())

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/indices/niftybank/companies?timeframe=weekly", http.StatusOK, ""},
		{"/api/indices/niftybank/companies", http.StatusOK, ""},
		{"/api/indices/niftybank/companies?timeframe=hourly", http.StatusBadRequest, "invalid_timeframe"},
		{"/api/indices/sensex/companies", http.StatusNotFound, "unknown_index"},
		{"/api/indices/niftybank/history", http.StatusNotFound, ""},
		{"/api/indices/niftybank", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		rr := do(t, s, http.MethodGet, tt.target, nil)
		assert.Equal(t, tt.status, rr.Code, tt.target)
		if tt.code != "" {
			assert.Equal(t, tt.code, decodeError(t, rr).Code, tt.target)
		}
	}

	rr := do(t, s, http.MethodGet, "/api/indices/niftybank/companies?timeframe=Weekly", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var data models.IndexData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &data))
	assert.Equal(t, "NIFTY Bank", data.Name)
	assert.Equal(t, models.TimeFrameWeekly, data.TimeFrame)
	assert.Empty(t, data.Companies)
}

func TestMovers(t *testing.T) {
	s := newTestServer(t, sampleFetcher())

	rr := do(t, s, http.MethodGet, "/api/movers?index=niftyit&timeframe=monthly", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var movers models.MarketMovers
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &movers))
	assert.Equal(t, "NIFTY IT", movers.IndexName)
	assert.Equal(t, models.TimeFrameMonthly, movers.TimeFrame)
	assert.Len(t, movers.Gainers, 2)
	assert.Contains(t, rr.Body.String(), `"percentChange":1.59`)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/movers", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/movers?index=sensex", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/movers?index=niftyit&timeframe=x", nil).Code)
}

func TestMovers_FailureIsGeneric(t *testing.T) {
	s := newTestServer(t, &tcommon.MockMoversFetcher{Err: errors.New("parse stage: unexpected token at offset 12")})

	rr := do(t, s, http.MethodGet, "/api/movers?index=nifty50", nil)
	require.Equal(t, http.StatusBadGateway, rr.Code)

	resp := decodeError(t, rr)
	assert.Equal(t, dashboard.MsgMoversFailed, resp.Error)
	assert.Equal(t, "movers_unavailable", resp.Code)
	assert.NotContains(t, rr.Body.String(), "offset")
}

func TestDashboard_SelectFlow(t *testing.T) {
	s := newTestServer(t, sampleFetcher())
	loadDashboard(t, s)

	rr := do(t, s, http.MethodPost, "/api/dashboard/select", []byte(`{"index_id":"niftybank","timeframe":"weekly"}`))
	require.Equal(t, http.StatusAccepted, rr.Code)

	var accepted dashboard.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))
	require.NotNil(t, accepted.Selection)
	assert.Equal(t, "niftybank", accepted.Selection.IndexID)

	settle(t, s)

	rr = do(t, s, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var view dashboard.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, dashboard.StatusReady, view.Snapshot.Status)
	assert.Equal(t, dashboard.StatusReady, view.Movers.Status)
	assert.Equal(t, "NIFTY Bank", view.Movers.Data.IndexName)
	assert.Equal(t, models.TimeFrameWeekly, view.Selection.TimeFrame)
}

func TestDashboard_SelectErrors(t *testing.T) {
	s := newTestServer(t, sampleFetcher())

	rr := do(t, s, http.MethodPost, "/api/dashboard/select", []byte(`{"index_id":"nifty50"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, "catalog not loaded")

	loadDashboard(t, s)

	tests := []struct {
		body   string
		status int
	}{
		{`{"index_id":"sensex","timeframe":"daily"}`, http.StatusNotFound},
		{`{"index_id":"nifty50","timeframe":"hourly"}`, http.StatusBadRequest},
		{`{not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := do(t, s, http.MethodPost, "/api/dashboard/select", []byte(tt.body))
		assert.Equal(t, tt.status, rr.Code, tt.body)
	}

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/api/dashboard/select", nil).Code)
}

func TestDashboard_ExportsBeforeDataHeld(t *testing.T) {
	s := newTestServer(t, sampleFetcher())

	for _, target := range []string{
		"/api/dashboard/export/companies",
		"/api/dashboard/export/movers",
		"/api/dashboard/movers/chart.png",
	} {
		rr := do(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusConflict, rr.Code, target)
		assert.Equal(t, "no_data", decodeError(t, rr).Code, target)
	}
}

func TestDashboard_Exports(t *testing.T) {
	s := newTestServer(t, sampleFetcher())
	loadDashboard(t, s)

	rr := do(t, s, http.MethodGet, "/api/dashboard/export/companies", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `attachment; filename="NIFTY 50_Top5_daily_2026-03-04.xlsx"`)
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rr = do(t, s, http.MethodGet, "/api/dashboard/export/movers", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "NIFTY_50_Daily_Market_Movers_2026-03-04.xlsx")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))

	rr = do(t, s, http.MethodGet, "/api/dashboard/movers/chart.png", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))
}

func TestDashboard_EmptyMoversCannotExport(t *testing.T) {
	fetcher := &tcommon.MockMoversFetcher{Handler: func(ctx context.Context, name string, tf models.TimeFrame) (*models.MarketMovers, error) {
		return &models.MarketMovers{IndexName: name, TimeFrame: tf, Gainers: []models.Company{}, Losers: []models.Company{}}, nil
	}}
	s := newTestServer(t, fetcher)
	v := loadDashboard(t, s)
	require.Equal(t, dashboard.StatusReady, v.Movers.Status)

	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodGet, "/api/dashboard/export/movers", nil).Code)
	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodGet, "/api/dashboard/movers/chart.png", nil).Code)
}

func TestShutdown(t *testing.T) {
	s := newTestServer(t, sampleFetcher())
	ch := make(chan struct{}, 1)
	s.SetShutdownChannel(ch)

	rr := do(t, s, http.MethodPost, "/api/shutdown", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("shutdown channel was not signalled")
	}

	s.app.Config.Environment = "production"
	assert.Equal(t, http.StatusForbidden, do(t, s, http.MethodPost, "/api/shutdown", nil).Code)
}

func TestPathParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/indices/niftyit/companies", nil)
	assert.Equal(t, "niftyit", PathParam(req, "/api/indices/", "/companies"))
	assert.Equal(t, "niftyit", PathParam(req, "/api/indices/", ""))
	assert.Equal(t, "", PathParam(req, "/api/movers/", ""))
}

func TestWriteAttachment_QuotesFilename(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAttachment(rr, "text/plain", "NIFTY 50_Top5.xlsx", []byte("x"))

	assert.Equal(t, `attachment; filename="NIFTY 50_Top5.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", rr.Header().Get("Content-Length"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "x"))
}
