package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/vstoxx"
)

// Column headers of the sub-index history file
const (
	ColumnDate      = "Date"
	ColumnNear      = "V6I1"
	ColumnMid       = "V6I2"
	ColumnFar       = "V6I3"
	ColumnReference = "V2TX"
)

// LoaderOptions configures how history files are read
type LoaderOptions struct {
	// DateFormat is tried before the fallback formats
	DateFormat string
	// Sheet selects the XLSX worksheet; empty uses the first one
	Sheet string
	// RequireIncreasingDates rejects files whose dates are not strictly increasing
	RequireIncreasingDates bool
}

// DefaultLoaderOptions returns ISO dates with ordering checks enabled
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		DateFormat:             "2006-01-02",
		RequireIncreasingDates: true,
	}
}

// Loader reads VSTOXX sub-index histories from CSV or XLSX files
type Loader struct {
	opts   LoaderOptions
	logger *slog.Logger
}

// NewLoader creates a loader
func NewLoader(opts LoaderOptions, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		opts:   opts,
		logger: logger.With(slog.String("component", "vstoxx_loader")),
	}
}

// LoadFile reads path, choosing the format from its extension
func (l *Loader) LoadFile(ctx context.Context, path string) ([]vstoxx.InputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.NewNotFoundError(fmt.Sprintf("input file %s", path))
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []vstoxx.InputRow
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = l.ReadXLSX(ctx, f)
	case ".csv", ".txt", "":
		rows, err = l.ReadCSV(ctx, f)
	default:
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("unsupported input format %q", ext))
	}
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "loaded sub-index history",
		slog.String("file", path),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// ReadCSV parses a CSV history with a header row
func (l *Loader) ReadCSV(ctx context.Context, r io.Reader) ([]vstoxx.InputRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError("read csv", err)
	}
	return l.parseRecords(ctx, records, false)
}

// ReadXLSX parses the configured worksheet of an Excel workbook
func (l *Loader) ReadXLSX(ctx context.Context, r io.Reader) ([]vstoxx.InputRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError("open workbook", err)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apierrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("read sheet %q", sheet), err)
	}
	return l.parseRecords(ctx, records, true)
}

type columnLayout struct {
	date, near, mid, far, reference int
}

func locateColumns(header []string) (columnLayout, error) {
	layout := columnLayout{date: -1, near: -1, mid: -1, far: -1, reference: -1}
	for i, name := range header {
		switch strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "DATE":
			layout.date = i
		case ColumnNear:
			layout.near = i
		case ColumnMid:
			layout.mid = i
		case ColumnFar:
			layout.far = i
		case ColumnReference:
			layout.reference = i
		}
	}

	// an unnamed first column is the date index
	if layout.date < 0 && len(header) > 0 {
		layout.date = 0
	}

	var missing []string
	if layout.mid < 0 {
		missing = append(missing, ColumnMid)
	}
	if layout.reference < 0 {
		missing = append(missing, ColumnReference)
	}
	if len(missing) > 0 {
		return layout, apierrors.NewParsingError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return layout, nil
}

func (l *Loader) parseRecords(ctx context.Context, records [][]string, excelDates bool) ([]vstoxx.InputRow, error) {
	if len(records) == 0 {
		return nil, apierrors.NewParsingError("input is empty", nil)
	}

	layout, err := locateColumns(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]vstoxx.InputRow, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlank(record) {
			continue
		}

		row, err := l.parseRecord(record, layout, excelDates)
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("line %d", line), err).
				WithContext("line", line)
		}
		rows = append(rows, row)
	}

	if l.opts.RequireIncreasingDates {
		if err := ValidateDates(rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (l *Loader) parseRecord(record []string, layout columnLayout, excelDates bool) (vstoxx.InputRow, error) {
	var row vstoxx.InputRow

	date, err := l.parseDate(cell(record, layout.date), excelDates)
	if err != nil {
		return row, err
	}
	row.Date = date

	fields := []struct {
		name   string
		column int
		dst    *vstoxx.Reading
	}{
		{ColumnNear, layout.near, &row.V6I1},
		{ColumnMid, layout.mid, &row.V6I2},
		{ColumnFar, layout.far, &row.V6I3},
		{ColumnReference, layout.reference, &row.V2TX},
	}
	for _, f := range fields {
		reading, err := ParseReading(cell(record, f.column))
		if err != nil {
			return row, fmt.Errorf("column %s: %w", f.name, err)
		}
		*f.dst = reading
	}
	return row, nil
}

// dateFormats are tried after the configured format
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02.01.2006",
	"01/02/2006",
	"2006/01/02",
}

func (l *Loader) parseDate(s string, excelDates bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if l.opts.DateFormat != "" {
		if date, err := time.Parse(l.opts.DateFormat, s); err == nil {
			return date, nil
		}
	}
	for _, format := range dateFormats {
		if date, err := time.Parse(format, s); err == nil {
			return date, nil
		}
	}

	if excelDates {
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			date, err := excelize.ExcelDateToTime(math.Floor(serial), false)
			if err == nil {
				return date.UTC().Round(24 * time.Hour), nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// ParseReading converts a cell to a reading. Empty cells and the usual
// missing-value markers are absent readings.
func ParseReading(s string) (vstoxx.Reading, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "#n/a", "null", "none", "-":
		return vstoxx.Absent(), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return vstoxx.Reading{}, fmt.Errorf("invalid number %q", s)
	}
	return vstoxx.Value(v), nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
