// Package models defines data structures for indexboard
package models

import (
	"fmt"
	"strings"
	"time"
)

// MaxMovers caps each of the gainers and losers lists.
const MaxMovers = 5

// Company is one constituent row as shown in the snapshot and movers tables.
type Company struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
	MarketCap     float64 `json:"marketCap"`
	Volume        int64   `json:"volume"`
}

// TimeFrame is the reporting horizon for movers and performance.
type TimeFrame string

const (
	TimeFrameDaily     TimeFrame = "daily"
	TimeFrameWeekly    TimeFrame = "weekly"
	TimeFrameMonthly   TimeFrame = "monthly"
	TimeFrameQuarterly TimeFrame = "quarterly"
	TimeFrameYearly    TimeFrame = "yearly"
)

// TimeFrames lists every time frame in display order.
var TimeFrames = []TimeFrame{
	TimeFrameDaily,
	TimeFrameWeekly,
	TimeFrameMonthly,
	TimeFrameQuarterly,
	TimeFrameYearly,
}

var timeFrameText = map[TimeFrame]struct {
	phrase string
	label  string
	period string
}{
	TimeFrameDaily:     {"today", "Daily", "Today"},
	TimeFrameWeekly:    {"this week", "Weekly", "This Week"},
	TimeFrameMonthly:   {"this month", "Monthly", "This Month"},
	TimeFrameQuarterly: {"this quarter", "Quarterly", "This Quarter"},
	TimeFrameYearly:    {"this year", "Yearly", "This Year"},
}

// ParseTimeFrame parses a time frame name, ignoring case and surrounding space.
func ParseTimeFrame(s string) (TimeFrame, error) {
	tf := TimeFrame(strings.ToLower(strings.TrimSpace(s)))
	if !tf.Valid() {
		return "", fmt.Errorf("unknown time frame %q", s)
	}
	return tf, nil
}

// Valid reports whether tf is one of the five known time frames.
func (tf TimeFrame) Valid() bool {
	_, ok := timeFrameText[tf]
	return ok
}

// Phrase is the natural-language horizon used in prompts ("this week").
func (tf TimeFrame) Phrase() string {
	return timeFrameText[tf].phrase
}

// Label is the capitalised name used in exports and headings ("Weekly").
func (tf TimeFrame) Label() string {
	return timeFrameText[tf].label
}

// PeriodLabel is the table caption form ("This Week").
func (tf TimeFrame) PeriodLabel() string {
	return timeFrameText[tf].period
}

// IndexDescriptor identifies a selectable market index.
type IndexDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IndexData is a named, timestamped list of constituent companies.
type IndexData struct {
	Name               string    `json:"name"`
	TimeFrame          TimeFrame `json:"timeframe"`
	Companies          []Company `json:"companies"`
	LastUpdated        time.Time `json:"last_updated"`
	LastUpdatedDisplay string    `json:"last_updated_display"`
}

// MarketMovers holds the top gainers and losers for an index and time frame.
// Order within each list is the source ranking and is never re-sorted.
type MarketMovers struct {
	IndexName          string    `json:"index_name"`
	TimeFrame          TimeFrame `json:"timeframe"`
	Gainers            []Company `json:"gainers"`
	Losers             []Company `json:"losers"`
	LastUpdated        time.Time `json:"last_updated"`
	LastUpdatedDisplay string    `json:"last_updated_display"`
}

// Empty reports whether neither list has entries.
func (m *MarketMovers) Empty() bool {
	return m == nil || (len(m.Gainers) == 0 && len(m.Losers) == 0)
}
