package interfaces

import (
	"context"
	"io"

	"github.com/bobmcallan/indexboard/internal/models"
)

// IndexCatalog supplies the fixed list of selectable indices
type IndexCatalog interface {
	// List returns the indices in display order
	List(ctx context.Context) ([]models.IndexDescriptor, error)

	// Lookup finds an index by id
	Lookup(id string) (models.IndexDescriptor, bool)
}

// SnapshotProvider returns constituent companies for an index
type SnapshotProvider interface {
	Fetch(ctx context.Context, indexID string, timeFrame models.TimeFrame) (*models.IndexData, error)
}

// MoversFetcher returns the top gainers and losers for an index
type MoversFetcher interface {
	// Fetch asks the completion service for movers of the named index.
	// All failures collapse to one error kind.
	Fetch(ctx context.Context, indexName string, timeFrame models.TimeFrame) (*models.MarketMovers, error)
}

// Exporter serializes held dashboard data into downloadable spreadsheets
type Exporter interface {
	WriteCompanies(w io.Writer, companies []models.Company, indexName string, timeFrame models.TimeFrame) error
	WriteMovers(w io.Writer, movers *models.MarketMovers) error
}
