package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/indexboard/internal/app"
	"github.com/bobmcallan/indexboard/internal/common"
	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/services/catalog"
	"github.com/bobmcallan/indexboard/internal/services/dashboard"
	"github.com/bobmcallan/indexboard/internal/services/export"
	"github.com/bobmcallan/indexboard/internal/services/snapshot"
)

var testNow = time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC)

// newTestServer builds a server over the real catalog, snapshot and export
// services with the given movers fetcher. The dashboard is not loaded.
func newTestServer(t *testing.T, fetcher interfaces.MoversFetcher) *Server {
	t.Helper()

	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	cat := catalog.NewService()
	snap := snapshot.NewService(cat, snapshot.WithDelay(0))
	dash := dashboard.New(cat, snap, fetcher, logger)
	t.Cleanup(dash.Close)

	a := &app.App{
		Config:    cfg,
		Logger:    logger,
		Location:  time.UTC,
		Catalog:   cat,
		Snapshots: snap,
		Movers:    fetcher,
		Exporter:  export.NewWriter(),
		Dashboard: dash,
	}

	s := NewServer(a)
	s.now = func() time.Time { return testNow }
	return s
}

// loadDashboard loads the catalog and waits for the initial selection to settle.
func loadDashboard(t *testing.T, s *Server) dashboard.View {
	t.Helper()
	require.NoError(t, s.app.Dashboard.Load(context.Background()))
	return settle(t, s)
}

func settle(t *testing.T, s *Server) dashboard.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := s.app.Dashboard.Wait(ctx)
	require.NoError(t, err)
	return v
}
