package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/indexboard/internal/clients/gemini"
	"github.com/bobmcallan/indexboard/internal/common"
	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/services/catalog"
	"github.com/bobmcallan/indexboard/internal/services/dashboard"
	"github.com/bobmcallan/indexboard/internal/services/export"
	"github.com/bobmcallan/indexboard/internal/services/movers"
	"github.com/bobmcallan/indexboard/internal/services/snapshot"
)

// App holds all initialized services and clients.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	Location     *time.Location
	GeminiClient interfaces.CompletionClient
	Catalog      interfaces.IndexCatalog
	Snapshots    interfaces.SnapshotProvider
	Movers       interfaces.MoversFetcher
	Exporter     interfaces.Exporter
	Dashboard    *dashboard.Dashboard
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// New initializes all clients and services from config.
// A missing Gemini key is not fatal: the movers section will fail on every fetch.
func New(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	loc := config.Display.Location()
	ctx := context.Background()

	var completion interfaces.CompletionClient
	geminiKey := config.Clients.Gemini.APIKey
	if geminiKey == "" {
		logger.Warn().Msg("Gemini API key not configured - market movers will be unavailable")
	} else {
		client, err := gemini.NewClient(ctx, geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithRateLimit(config.Clients.Gemini.RateLimit),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			completion = client
		}
	}

	catalogService := catalog.NewService()
	snapshotService := snapshot.NewService(catalogService,
		snapshot.WithDelay(config.Snapshot.GetDelay()),
		snapshot.WithLocation(loc),
		snapshot.WithLogger(logger),
	)
	moversFetcher := movers.NewFetcher(completion, logger,
		movers.WithTimeout(config.Clients.Gemini.GetTimeout()),
		movers.WithLocation(loc),
	)

	a := &App{
		Config:       config,
		Logger:       logger,
		Location:     loc,
		GeminiClient: completion,
		Catalog:      catalogService,
		Snapshots:    snapshotService,
		Movers:       moversFetcher,
		Exporter:     export.NewWriter(export.WithLocation(loc)),
		Dashboard:    dashboard.New(catalogService, snapshotService, moversFetcher, logger),
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Start loads the index catalog and kicks off the initial selection.
func (a *App) Start(ctx context.Context) error {
	if err := a.Dashboard.Load(ctx); err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	return nil
}

// Close releases all resources held by the App.
func (a *App) Close() error {
	if a.Dashboard != nil {
		a.Dashboard.Close()
	}
	return nil
}

// ResolveLogPath makes a relative log file path relative to the binary.
func ResolveLogPath(config *common.Config) {
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}
}
