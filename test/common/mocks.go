// Package common provides shared test infrastructure
package common

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/models"
)

// MockCompletionClient implements CompletionClient for testing
type MockCompletionClient struct {
	Responses map[string]string
	Default   string
	Err       error
	Delay     time.Duration

	mu      sync.Mutex
	prompts []string
}

// NewMockCompletionClient creates a mock completion client that answers
// every prompt with reply.
func NewMockCompletionClient(reply string) *MockCompletionClient {
	return &MockCompletionClient{
		Responses: make(map[string]string),
		Default:   reply,
	}
}

func (m *MockCompletionClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if resp, ok := m.Responses[prompt]; ok {
		return resp, nil
	}
	return m.Default, nil
}

// Calls returns the number of prompts received
func (m *MockCompletionClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// LastPrompt returns the most recent prompt, or "" if none
func (m *MockCompletionClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// MockCatalog implements IndexCatalog for testing
type MockCatalog struct {
	Indices []models.IndexDescriptor
	Err     error
}

func (m *MockCatalog) List(ctx context.Context) ([]models.IndexDescriptor, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.IndexDescriptor, len(m.Indices))
	copy(out, m.Indices)
	return out, nil
}

func (m *MockCatalog) Lookup(id string) (models.IndexDescriptor, bool) {
	for _, idx := range m.Indices {
		if idx.ID == id {
			return idx, true
		}
	}
	return models.IndexDescriptor{}, false
}

// MockSnapshotProvider implements SnapshotProvider for testing.
// Handler, when set, replaces the default behaviour.
type MockSnapshotProvider struct {
	Handler func(ctx context.Context, indexID string, tf models.TimeFrame) (*models.IndexData, error)
	Data    *models.IndexData
	Err     error
}

func (m *MockSnapshotProvider) Fetch(ctx context.Context, indexID string, tf models.TimeFrame) (*models.IndexData, error) {
	if m.Handler != nil {
		return m.Handler(ctx, indexID, tf)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Data != nil {
		return m.Data, nil
	}
	return &models.IndexData{Name: indexID, TimeFrame: tf, Companies: []models.Company{}, LastUpdated: time.Now()}, nil
}

// MockMoversFetcher implements MoversFetcher for testing.
// Handler, when set, replaces the default behaviour.
type MockMoversFetcher struct {
	Handler func(ctx context.Context, indexName string, tf models.TimeFrame) (*models.MarketMovers, error)
	Movers  *models.MarketMovers
	Err     error
}

func (m *MockMoversFetcher) Fetch(ctx context.Context, indexName string, tf models.TimeFrame) (*models.MarketMovers, error) {
	if m.Handler != nil {
		return m.Handler(ctx, indexName, tf)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Movers != nil {
		return m.Movers, nil
	}
	return nil, errors.New("no movers configured")
}

// SampleMovers returns a populated movers result for indexName
func SampleMovers(indexName string, tf models.TimeFrame) *models.MarketMovers {
	return &models.MarketMovers{
		IndexName: indexName,
		TimeFrame: tf,
		Gainers: []models.Company{
			{Symbol: "RELIANCE", Name: "Reliance Industries Ltd.", Price: 2890.75, Change: 45.30, PercentChange: 1.59, MarketCap: 1956000000000, Volume: 8765432},
			{Symbol: "INFY", Name: "Infosys Ltd.", Price: 1520.10, Change: 18.20, PercentChange: 1.21, MarketCap: 630000000000, Volume: 5123400},
		},
		Losers: []models.Company{
			{Symbol: "TCS", Name: "Tata Consultancy Services Ltd.", Price: 3678.25, Change: -12.45, PercentChange: -0.34, MarketCap: 1350000000000, Volume: 3452100},
		},
		LastUpdated: time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC),
	}
}

var (
	_ interfaces.CompletionClient = (*MockCompletionClient)(nil)
	_ interfaces.IndexCatalog     = (*MockCatalog)(nil)
	_ interfaces.SnapshotProvider = (*MockSnapshotProvider)(nil)
	_ interfaces.MoversFetcher    = (*MockMoversFetcher)(nil)
)
