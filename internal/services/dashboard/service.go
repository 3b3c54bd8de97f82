// Package dashboard holds the server-side state of the index dashboard:
// the catalog, the current selection and the independently loaded
// snapshot and movers sections.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bobmcallan/indexboard/internal/common"
	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/models"
)

// User-facing failure messages, one per section.
const (
	MsgCatalogFailed  = "Failed to fetch indices. Please try again later."
	MsgSnapshotFailed = "Failed to fetch company data. Please try again later."
	MsgMoversFailed   = "Failed to fetch market movers data from Gemini API. Please try again later."
)

var (
	ErrCatalogUnavailable = errors.New("index catalog unavailable")
	ErrUnknownIndex       = errors.New("unknown index")
	ErrInvalidTimeFrame   = errors.New("invalid time frame")
)

// Selection is the index and time frame currently shown.
type Selection struct {
	IndexID   string           `json:"index_id"`
	IndexName string           `json:"index_name"`
	TimeFrame models.TimeFrame `json:"timeframe"`
}

// CatalogView is the catalog part of a View.
type CatalogView struct {
	Status  Status                   `json:"status"`
	Indices []models.IndexDescriptor `json:"indices"`
	Error   string                   `json:"error,omitempty"`
}

// View is an immutable snapshot of the whole dashboard.
type View struct {
	Catalog   CatalogView                       `json:"catalog"`
	Selection *Selection                        `json:"selection,omitempty"`
	Snapshot  SectionView[*models.IndexData]    `json:"snapshot"`
	Movers    SectionView[*models.MarketMovers] `json:"movers"`
}

// Loading reports whether any section is still waiting on a fetch.
func (v View) Loading() bool {
	return v.Catalog.Status == StatusLoading || v.Snapshot.Status == StatusLoading || v.Movers.Status == StatusLoading
}

// Dashboard coordinates catalog loading and per-selection fetches.
type Dashboard struct {
	catalog   interfaces.IndexCatalog
	snapshots interfaces.SnapshotProvider
	fetcher   interfaces.MoversFetcher
	logger    *common.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu             sync.Mutex
	catalogStatus  Status
	catalogErr     string
	indices        []models.IndexDescriptor
	selection      *Selection
	snapshot       Section[*models.IndexData]
	movers         Section[*models.MarketMovers]
	cancelSnapshot context.CancelFunc
	cancelMovers   context.CancelFunc
	changed        chan struct{}
}

// New creates an idle dashboard. Call Load before Select.
func New(catalog interfaces.IndexCatalog, snapshots interfaces.SnapshotProvider, fetcher interfaces.MoversFetcher, logger *common.Logger) *Dashboard {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		catalog:       catalog,
		snapshots:     snapshots,
		fetcher:       fetcher,
		logger:        logger,
		baseCtx:       ctx,
		baseCancel:    cancel,
		catalogStatus: StatusIdle,
		changed:       make(chan struct{}),
	}
}

// Load fetches the catalog and selects the first index for the daily time frame.
// A catalog failure halts all later selections.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.catalogStatus = StatusLoading
	d.catalogErr = ""
	d.notifyLocked()
	d.mu.Unlock()

	indices, err := d.catalog.List(ctx)

	d.mu.Lock()
	if err != nil {
		d.catalogStatus = StatusFailed
		d.catalogErr = MsgCatalogFailed
		d.indices = nil
		d.notifyLocked()
		d.mu.Unlock()
		d.logger.Warn().Err(err).Msg("Index catalog load failed")
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	d.catalogStatus = StatusReady
	d.indices = indices
	d.notifyLocked()
	d.mu.Unlock()

	d.logger.Info().Int("indices", len(indices)).Msg("Index catalog loaded")

	if len(indices) == 0 {
		return nil
	}
	return d.Select(indices[0].ID, models.TimeFrameDaily)
}

// Select switches the dashboard to indexID and timeFrame and starts both
// fetches. In-flight fetches for an earlier selection are cancelled and
// their results discarded.
func (d *Dashboard) Select(indexID string, timeFrame models.TimeFrame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.catalogStatus != StatusReady {
		return ErrCatalogUnavailable
	}
	idx, ok := d.lookupLocked(indexID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, indexID)
	}
	if !timeFrame.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTimeFrame, timeFrame)
	}

	if d.cancelSnapshot != nil {
		d.cancelSnapshot()
	}
	if d.cancelMovers != nil {
		d.cancelMovers()
	}

	d.selection = &Selection{IndexID: idx.ID, IndexName: idx.Name, TimeFrame: timeFrame}

	snapCtx, snapCancel := context.WithCancel(d.baseCtx)
	moversCtx, moversCancel := context.WithCancel(d.baseCtx)
	d.cancelSnapshot = snapCancel
	d.cancelMovers = moversCancel

	snapToken := d.snapshot.Begin()
	moversToken := d.movers.Begin()
	d.notifyLocked()

	d.logger.Info().Str("index", idx.ID).Str("timeframe", string(timeFrame)).Msg("Dashboard selection changed")

	go d.runSnapshot(snapCtx, snapCancel, snapToken, idx, timeFrame)
	go d.runMovers(moversCtx, moversCancel, moversToken, idx, timeFrame)

	return nil
}

func (d *Dashboard) runSnapshot(ctx context.Context, cancel context.CancelFunc, token uint64, idx models.IndexDescriptor, tf models.TimeFrame) {
	defer cancel()
	data, err := d.snapshots.Fetch(ctx, idx.ID, tf)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		if d.snapshot.Fail(token, MsgSnapshotFailed) {
			d.logger.Warn().Err(err).Str("index", idx.ID).Msg("Company snapshot fetch failed")
		}
	} else if !d.snapshot.Complete(token, data) {
		d.logger.Debug().Str("index", idx.ID).Msg("Discarding superseded snapshot")
	}
	d.notifyLocked()
}

func (d *Dashboard) runMovers(ctx context.Context, cancel context.CancelFunc, token uint64, idx models.IndexDescriptor, tf models.TimeFrame) {
	defer cancel()
	movers, err := d.fetcher.Fetch(ctx, idx.Name, tf)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.movers.Fail(token, MsgMoversFailed)
	} else if !d.movers.Complete(token, movers) {
		d.logger.Debug().Str("index", idx.ID).Msg("Discarding superseded movers")
	}
	d.notifyLocked()
}

// View returns a snapshot of the dashboard state.
func (d *Dashboard) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

// Wait blocks until no section is loading or ctx is done.
func (d *Dashboard) Wait(ctx context.Context) (View, error) {
	for {
		d.mu.Lock()
		v := d.viewLocked()
		changed := d.changed
		d.mu.Unlock()

		if !v.Loading() {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-changed:
		}
	}
}

// Close cancels every in-flight fetch.
func (d *Dashboard) Close() {
	d.baseCancel()
}

func (d *Dashboard) lookupLocked(indexID string) (models.IndexDescriptor, bool) {
	for _, idx := range d.indices {
		if idx.ID == indexID {
			return idx, true
		}
	}
	return models.IndexDescriptor{}, false
}

func (d *Dashboard) viewLocked() View {
	indices := make([]models.IndexDescriptor, len(d.indices))
	copy(indices, d.indices)

	v := View{
		Catalog: CatalogView{
			Status:  d.catalogStatus,
			Indices: indices,
			Error:   d.catalogErr,
		},
		Snapshot: d.snapshot.View(),
		Movers:   d.movers.View(),
	}
	if d.selection != nil {
		sel := *d.selection
		v.Selection = &sel
	}
	return v
}

// notifyLocked wakes every Wait caller.
func (d *Dashboard) notifyLocked() {
	close(d.changed)
	d.changed = make(chan struct{})
}
