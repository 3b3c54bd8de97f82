package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/indexboard/internal/models"
	"github.com/bobmcallan/indexboard/internal/services/catalog"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC)
}

func TestFetch_KnownIndex(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	s := NewService(catalog.NewService(), WithDelay(0), WithClock(fixedClock), WithLocation(loc))

	data, err := s.Fetch(context.Background(), "niftybank", models.TimeFrameWeekly)
	require.NoError(t, err)

	assert.Equal(t, "NIFTY Bank", data.Name)
	assert.Equal(t, models.TimeFrameWeekly, data.TimeFrame)
	assert.NotNil(t, data.Companies)
	assert.Empty(t, data.Companies)
	assert.Equal(t, fixedClock(), data.LastUpdated)
	assert.Equal(t, "04/03/2026, 14:45:00", data.LastUpdatedDisplay)
}

func TestFetch_UnknownIndexEchoesID(t *testing.T) {
	s := NewService(catalog.NewService(), WithDelay(0))

	data, err := s.Fetch(context.Background(), "sensex", models.TimeFrameDaily)
	require.NoError(t, err)
	assert.Equal(t, "sensex", data.Name)
}

func TestFetch_InvalidTimeFrame(t *testing.T) {
	s := NewService(catalog.NewService())

	start := time.Now()
	_, err := s.Fetch(context.Background(), "nifty50", models.TimeFrame("hourly"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), DefaultDelay, "invalid time frame should not wait")
}

func TestFetch_WaitsForDelay(t *testing.T) {
	s := NewService(catalog.NewService(), WithDelay(30*time.Millisecond))

	start := time.Now()
	_, err := s.Fetch(context.Background(), "nifty50", models.TimeFrameDaily)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestFetch_CancelledDuringDelay(t *testing.T) {
	s := NewService(catalog.NewService(), WithDelay(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Fetch(ctx, "nifty50", models.TimeFrameDaily)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
