// Package snapshot provides constituent company listings for an index.
// No market data source is wired yet, so the listing is always empty.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/indexboard/internal/common"
	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/models"
)

// DefaultDelay simulates the latency of a listing service.
const DefaultDelay = 500 * time.Millisecond

// Service implements SnapshotProvider.
type Service struct {
	catalog  interfaces.IndexCatalog
	delay    time.Duration
	location *time.Location
	logger   *common.Logger
	now      func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithDelay sets the artificial response delay. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithLocation sets the timezone used for display timestamps
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a snapshot provider that names indices from catalog.
func NewService(catalog interfaces.IndexCatalog, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		delay:    DefaultDelay,
		location: time.UTC,
		logger:   common.NewSilentLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the companies for indexID. Unknown ids are echoed back as the name.
func (s *Service) Fetch(ctx context.Context, indexID string, timeFrame models.TimeFrame) (*models.IndexData, error) {
	if !timeFrame.Valid() {
		return nil, fmt.Errorf("invalid time frame %q", timeFrame)
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := indexID
	if s.catalog != nil {
		if idx, ok := s.catalog.Lookup(indexID); ok {
			name = idx.Name
		}
	}

	now := s.now()
	s.logger.Debug().Str("index", indexID).Str("timeframe", string(timeFrame)).Msg("Snapshot fetched")

	return &models.IndexData{
		Name:               name,
		TimeFrame:          timeFrame,
		Companies:          []models.Company{},
		LastUpdated:        now,
		LastUpdatedDisplay: common.FormatDisplayTime(now, s.location),
	}, nil
}

var _ interfaces.SnapshotProvider = (*Service)(nil)
