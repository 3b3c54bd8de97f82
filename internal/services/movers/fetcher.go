// Package movers fetches top gainers and losers for an index from a
// generative completion service and normalizes the reply.
package movers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/indexboard/internal/common"
	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/models"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

const examplePayload = `{
  "gainers": [{"symbol": "RELIANCE", "name": "Reliance Industries Ltd.", "price": 2890.75, "change": 45.30, "percentChange": 1.59, "marketCap": 1956000000000, "volume": 8765432}],
  "losers": [{"symbol": "TCS", "name": "Tata Consultancy Services Ltd.", "price": 3678.25, "change": -12.45, "percentChange": -0.34, "marketCap": 1350000000000, "volume": 3452100}]
}`

// Fetcher implements MoversFetcher over a CompletionClient.
type Fetcher struct {
	client   interfaces.CompletionClient
	timeout  time.Duration
	location *time.Location
	logger   *common.Logger
	now      func() time.Time
}

// Option configures the fetcher
type Option func(*Fetcher)

// WithTimeout bounds each completion call
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithClock overrides the time source used for lastUpdated
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLocation sets the timezone of the display timestamp
func WithLocation(loc *time.Location) Option {
	return func(f *Fetcher) {
		if loc != nil {
			f.location = loc
		}
	}
}

// NewFetcher creates a movers fetcher. A nil client makes every fetch fail
// at the network stage.
func NewFetcher(client interfaces.CompletionClient, logger *common.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	f := &Fetcher{
		client:   client,
		timeout:  DefaultTimeout,
		location: time.UTC,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns at most five gainers and five losers for indexName, in the
// order the completion service ranked them.
func (f *Fetcher) Fetch(ctx context.Context, indexName string, timeFrame models.TimeFrame) (*models.MarketMovers, error) {
	name := strings.TrimSpace(indexName)
	if name == "" {
		return nil, fmt.Errorf("%w: index name is required", ErrInvalidRequest)
	}
	if !timeFrame.Valid() {
		return nil, fmt.Errorf("%w: unknown time frame %q", ErrInvalidRequest, timeFrame)
	}

	movers, err := f.fetch(ctx, name, timeFrame)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			f.logger.Warn().Str("index", name).Str("timeframe", string(timeFrame)).Str("stage", string(se.Stage)).Err(se.Err).Msg("Market movers fetch failed")
		}
		return nil, err
	}

	f.logger.Info().Str("index", name).Str("timeframe", string(timeFrame)).Int("gainers", len(movers.Gainers)).Int("losers", len(movers.Losers)).Msg("Market movers fetched")
	return movers, nil
}

func (f *Fetcher) fetch(ctx context.Context, name string, timeFrame models.TimeFrame) (*models.MarketMovers, error) {
	if f.client == nil {
		return nil, stageErr(StageNetwork, "completion client not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	text, err := f.client.GenerateContent(callCtx, buildPrompt(name, timeFrame))
	if err != nil {
		return nil, &StageError{Stage: StageNetwork, Err: err}
	}

	body, ok := extractJSON(text)
	if !ok {
		return nil, stageErr(StageParse, "no JSON object in response")
	}

	gainers, losers, err := decodePayload(body, name)
	if err != nil {
		return nil, err
	}

	now := f.now()
	return &models.MarketMovers{
		IndexName:          name,
		TimeFrame:          timeFrame,
		Gainers:            gainers,
		Losers:             losers,
		LastUpdated:        now,
		LastUpdatedDisplay: common.FormatDisplayTime(now, f.location),
	}, nil
}

func buildPrompt(indexName string, timeFrame models.TimeFrame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Return only a JSON object with top %d gainers and top %d losers for %s index for %s:\n\n",
		models.MaxMovers, models.MaxMovers, indexName, timeFrame.Phrase())
	sb.WriteString(examplePayload)
	return sb.String()
}

var _ interfaces.MoversFetcher = (*Fetcher)(nil)
