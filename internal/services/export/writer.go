// Package export writes dashboard data to XLSX workbooks
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/indexboard/internal/common"
	"github.com/bobmcallan/indexboard/internal/interfaces"
	"github.com/bobmcallan/indexboard/internal/models"
)

// ContentType is the MIME type of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	CompaniesSheet = "Top Companies"
	MoversSheet    = "Market Movers"
	ReportTitle    = "Stock Market Analytics Dashboard"
)

// ErrNoData is returned when a movers export has nothing to write.
var ErrNoData = errors.New("no data available to export")

var (
	companiesHeader = []string{"Symbol", "Name", "Price", "Change (₹)", "Change (%)", "Market Cap (Cr)", "Volume"}
	companiesWidths = []float64{10, 30, 12, 12, 12, 15, 15}

	moversHeader = []string{"Rank", "Symbol", "Company Name", "Price (₹)", "Change (₹)", "Change (%)", "Market Cap", "Volume"}
	moversWidths = []float64{6, 12, 35, 12, 12, 10, 15, 15}

	whitespace = regexp.MustCompile(`\s+`)
)

// Writer implements Exporter using excelize.
type Writer struct {
	location *time.Location
	now      func() time.Time
}

// Option configures the writer
type Option func(*Writer)

// WithLocation sets the timezone of the export date
func WithLocation(loc *time.Location) Option {
	return func(w *Writer) {
		if loc != nil {
			w.location = loc
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWriter creates an XLSX writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{location: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteCompanies writes one row per company under a fixed header.
func (x *Writer) WriteCompanies(w io.Writer, companies []models.Company, indexName string, timeFrame models.TimeFrame) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CompaniesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setWidths(f, CompaniesSheet, companiesWidths); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := setRow(f, CompaniesSheet, 1, toRow(companiesHeader)); err != nil {
		return err
	}
	if err := f.SetCellStyle(CompaniesSheet, "A1", "G1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, c := range companies {
		row := []any{
			c.Symbol,
			c.Name,
			c.Price,
			c.Change,
			fmt.Sprintf("%.2f%%", c.PercentChange),
			common.MarketCapCrore(c.MarketCap),
			common.FormatVolume(c.Volume),
		}
		if err := setRow(f, CompaniesSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("%s %s", indexName, timeFrame.Label()),
		Creator: "indexboard",
	}); err != nil {
		return fmt.Errorf("set properties: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteMovers writes a report with a header block followed by the gainers
// and losers tables. Market caps are shown in crore and lakh crore, not
// billions and millions.
func (x *Writer) WriteMovers(w io.Writer, movers *models.MarketMovers) error {
	if movers.Empty() {
		return ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := MoversSheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setWidths(f, sheet, moversWidths); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E2F3"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	rows := []struct {
		row    int
		values []any
	}{
		{1, []any{ReportTitle}},
		{3, []any{"Index:", movers.IndexName}},
		{4, []any{"Timeframe:", movers.TimeFrame.Label()}},
		{5, []any{"Export Date:", common.FormatDisplayTime(x.now(), x.location)}},
	}
	for _, r := range rows {
		if err := setRow(f, sheet, r.row, r.values); err != nil {
			return err
		}
	}
	if err := f.MergeCell(sheet, "A1", "H1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", titleStyle); err != nil {
		return fmt.Errorf("style title: %w", err)
	}

	row := 7
	row, err = writeMoversTable(f, sheet, row, "TOP 5 GAINERS", movers.Gainers, sectionStyle, headerStyle)
	if err != nil {
		return err
	}
	if _, err = writeMoversTable(f, sheet, row+2, "TOP 5 LOSERS", movers.Losers, sectionStyle, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeMoversTable writes a section title, a blank row, the column header and
// the ranked rows. It returns the row after the last written one.
func writeMoversTable(f *excelize.File, sheet string, row int, title string, companies []models.Company, sectionStyle, headerStyle int) (int, error) {
	if err := setRow(f, sheet, row, []any{title}); err != nil {
		return 0, err
	}
	if err := styleRow(f, sheet, row, len(moversHeader), sectionStyle); err != nil {
		return 0, err
	}

	row += 2
	if err := setRow(f, sheet, row, toRow(moversHeader)); err != nil {
		return 0, err
	}
	if err := styleRow(f, sheet, row, len(moversHeader), headerStyle); err != nil {
		return 0, err
	}
	row++

	for i, c := range companies {
		values := []any{
			i + 1,
			c.Symbol,
			c.Name,
			round2(c.Price),
			round2(c.Change),
			fmt.Sprintf("%.2f%%", c.PercentChange),
			common.FormatMarketCap(c.MarketCap),
			common.FormatVolume(c.Volume),
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return 0, err
		}
		row++
	}
	return row, nil
}

// CompaniesFileName is "<index>_Top5_<timeframe>_<YYYY-MM-DD>.xlsx".
func CompaniesFileName(indexName string, timeFrame models.TimeFrame, date time.Time) string {
	return fmt.Sprintf("%s_Top5_%s_%s.xlsx", indexName, timeFrame, date.Format("2006-01-02"))
}

// MoversFileName is "<Index_Name>_<Label>_Market_Movers_<YYYY-MM-DD>.xlsx".
func MoversFileName(indexName string, timeFrame models.TimeFrame, date time.Time) string {
	return fmt.Sprintf("%s_%s_Market_Movers_%s.xlsx",
		whitespace.ReplaceAllString(indexName, "_"), timeFrame.Label(), date.Format("2006-01-02"))
}

func setWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("set width of column %s: %w", col, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func toRow(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ interfaces.Exporter = (*Writer)(nil)
