// Package chart renders market movers as PNG charts
package chart

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/indexboard/internal/models"
)

var (
	gainColor = drawing.ColorFromHex("16a34a") // green-600
	lossColor = drawing.ColorFromHex("dc2626") // red-600
)

// RenderMoversChart renders a PNG bar chart of percent change, gainers first
// in green and losers after in red. Returns raw PNG bytes.
func RenderMoversChart(movers *models.MarketMovers) ([]byte, error) {
	if movers.Empty() {
		return nil, fmt.Errorf("no movers to chart")
	}

	bars := make([]chart.Value, 0, len(movers.Gainers)+len(movers.Losers))
	lo, hi := 0.0, 0.0
	add := func(c models.Company, color drawing.Color) {
		bars = append(bars, chart.Value{
			Label: c.Symbol,
			Value: c.PercentChange,
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		})
		lo = math.Min(lo, c.PercentChange)
		hi = math.Max(hi, c.PercentChange)
	}
	for _, c := range movers.Gainers {
		add(c, gainColor)
	}
	for _, c := range movers.Losers {
		add(c, lossColor)
	}

	// go-chart cannot draw a zero-height range
	if hi-lo == 0 {
		hi = 1
	}
	pad := (hi - lo) * 0.1

	graph := chart.BarChart{
		Title:  fmt.Sprintf("%s %s Movers", movers.IndexName, movers.TimeFrame.Label()),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth:     50,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
