// Package catalog provides the fixed list of selectable NSE indices
package catalog

import (
	"context"

	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/models"
)

var nseIndices = []models.IndexDescriptor{
	{ID: "nifty50", Name: "NIFTY 50"},
	{ID: "niftybank", Name: "NIFTY Bank"},
	{ID: "niftyit", Name: "NIFTY IT"},
	{ID: "niftypharma", Name: "NIFTY Pharma"},
	{ID: "niftyauto", Name: "NIFTY Auto"},
	{ID: "niftyfmcg", Name: "NIFTY FMCG"},
	{ID: "niftymetal", Name: "NIFTY Metal"},
	{ID: "niftyrealty", Name: "NIFTY Realty"},
}

// Service implements IndexCatalog over a static index list.
type Service struct {
	indices []models.IndexDescriptor
	byID    map[string]models.IndexDescriptor
}

// NewService creates a catalog of the standard NSE sectoral indices.
func NewService() *Service {
	return newService(nseIndices)
}

func newService(indices []models.IndexDescriptor) *Service {
	s := &Service{
		indices: make([]models.IndexDescriptor, len(indices)),
		byID:    make(map[string]models.IndexDescriptor, len(indices)),
	}
	copy(s.indices, indices)
	for _, idx := range indices {
		s.byID[idx.ID] = idx
	}
	return s
}

// List returns the indices in display order. The slice is a copy.
func (s *Service) List(ctx context.Context) ([]models.IndexDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.IndexDescriptor, len(s.indices))
	copy(out, s.indices)
	return out, nil
}

// Lookup finds an index by id.
func (s *Service) Lookup(id string) (models.IndexDescriptor, bool) {
	idx, ok := s.byID[id]
	return idx, ok
}

var _ interfaces.IndexCatalog = (*Service)(nil)
