package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"vstoxxcli/internal/config"
	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/vstoxx"
)

const (
	// ResultsSheet holds one row per computed day
	ResultsSheet = "VSTOXX"
	// SummarySheet holds the deviation statistics
	SummarySheet = "Summary"
	// ErrorsSheet lists rows that could not be computed; only present when some failed
	ErrorsSheet = "Errors"
)

// ErrorHeaders are the columns of the row error section
var ErrorHeaders = []string{"Row", "Date", "Kind", "Field", "Message"}

// ErrorRecord converts a row error to fields matching ErrorHeaders
func ErrorRecord(e *vstoxx.RowError) []string {
	return []string{
		strconv.Itoa(e.Index),
		formatDate(e.Date),
		string(e.Kind),
		e.Field,
		e.Error(),
	}
}

// ResultHeaders are the output columns in file order
var ResultHeaders = []string{
	"Date",
	"V2TX",
	"V6I1",
	"V6I2",
	"V6I3",
	"SettlementDate1",
	"SettlementDate2",
	"LifeTime1",
	"LifeTime2",
	"UseV6I1",
	"Source1",
	"Source2",
	"VSTOXX",
	"Deviation",
}

// ResultRecord converts an output row to CSV fields matching ResultHeaders
func ResultRecord(row vstoxx.OutputRow) []string {
	return []string{
		formatDate(row.Date),
		formatReading(row.V2TX),
		formatReading(row.V6I1),
		formatReading(row.V6I2),
		formatReading(row.V6I3),
		formatDate(row.SettlementDate1),
		formatDate(row.SettlementDate2),
		formatInt(row.LifeTime1),
		formatInt(row.LifeTime2),
		formatBool(row.UseNear),
		formatFloat(row.Source1),
		formatFloat(row.Source2),
		formatFloat(row.ComputedIndex),
		formatFloat(row.Deviation),
	}
}

func resultCells(row vstoxx.OutputRow) []interface{} {
	reading := func(r vstoxx.Reading) interface{} {
		if !r.Present() {
			return nil
		}
		return r.Value
	}
	return []interface{}{
		formatDate(row.Date),
		reading(row.V2TX),
		reading(row.V6I1),
		reading(row.V6I2),
		reading(row.V6I3),
		formatDate(row.SettlementDate1),
		formatDate(row.SettlementDate2),
		row.LifeTime1,
		row.LifeTime2,
		row.UseNear,
		row.Source1,
		row.Source2,
		row.ComputedIndex,
		row.Deviation,
	}
}

// ResultExporter writes computed rows as CSV or XLSX reports
type ResultExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewResultExporter creates an exporter rooted at the reports directory of paths
func NewResultExporter(paths *config.Paths, logger *slog.Logger) *ResultExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "result_exporter"))
	return &ResultExporter{
		csvWriter: NewCSVWriter(paths, logger),
		logger:    logger,
	}
}

// ExportCSV streams rows to a CSV file and returns its resolved path
func (e *ResultExporter) ExportCSV(ctx context.Context, filePath string, rows []vstoxx.OutputRow) (string, error) {
	stream, err := e.csvWriter.CreateStreamWriter(filePath, ResultHeaders)
	if err != nil {
		return "", err
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			stream.Close()
			return "", err
		}
		if err := stream.WriteRecord(ResultRecord(row)); err != nil {
			stream.Close()
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := stream.Close(); err != nil {
		return "", apierrors.NewStorageError("failed to close csv", err).
			WithContext("path", stream.Path())
	}

	e.logger.InfoContext(ctx, "Exported results",
		slog.String("format", "csv"),
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Count()))
	return stream.Path(), nil
}

// WriteCSV writes rows as CSV to w without a BOM. Row errors, if any, follow
// the results after a blank line as a second table with ErrorHeaders.
func (e *ResultExporter) WriteCSV(w io.Writer, rows []vstoxx.OutputRow, errs vstoxx.RowErrors) error {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = ResultRecord(row)
	}
	if err := Write(w, WriteOptions{Headers: ResultHeaders, Records: records}); err != nil {
		return err
	}
	if len(errs) == 0 {
		return nil
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}
	errRecords := make([][]string, len(errs))
	for i, rowErr := range errs {
		errRecords[i] = ErrorRecord(rowErr)
	}
	return Write(w, WriteOptions{Headers: ErrorHeaders, Records: errRecords})
}

// ExportXLSX writes rows, their summary and any row errors to a workbook and
// returns its resolved path
func (e *ResultExporter) ExportXLSX(ctx context.Context, filePath string, rows []vstoxx.OutputRow, errs vstoxx.RowErrors) (string, error) {
	fullPath := e.csvWriter.ResolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", apierrors.NewStorageError("failed to create directory", err)
	}

	f, err := e.buildWorkbook(ctx, rows, errs)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(fullPath); err != nil {
		return "", apierrors.NewStorageError("failed to save workbook", err).
			WithContext("path", fullPath)
	}

	e.logger.InfoContext(ctx, "Exported results",
		slog.String("format", "xlsx"),
		slog.String("path", fullPath),
		slog.Int("rows", len(rows)),
		slog.Int("failed", len(errs)))
	return fullPath, nil
}

// WriteXLSX writes the workbook to w
func (e *ResultExporter) WriteXLSX(ctx context.Context, w io.Writer, rows []vstoxx.OutputRow, errs vstoxx.RowErrors) error {
	f, err := e.buildWorkbook(ctx, rows, errs)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *ResultExporter) buildWorkbook(ctx context.Context, rows []vstoxx.OutputRow, errs vstoxx.RowErrors) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := e.writeResultsSheet(ctx, f, rows); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummarySheet(f, vstoxx.Summarize(rows)); err != nil {
		f.Close()
		return nil, err
	}
	if len(errs) > 0 {
		if err := writeErrorsSheet(f, errs); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeErrorsSheet(f *excelize.File, errs vstoxx.RowErrors) error {
	if _, err := f.NewSheet(ErrorsSheet); err != nil {
		return fmt.Errorf("failed to create errors sheet: %w", err)
	}

	header := make([]interface{}, len(ErrorHeaders))
	for i, h := range ErrorHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ErrorsSheet, "A1", &header); err != nil {
		return err
	}
	for i, rowErr := range errs {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := []interface{}{rowErr.Index, formatDate(rowErr.Date), string(rowErr.Kind), rowErr.Field, rowErr.Error()}
		if err := f.SetSheetRow(ErrorsSheet, cellRef, &cells); err != nil {
			return fmt.Errorf("failed to write row error %d: %w", i, err)
		}
	}
	return f.SetColWidth(ErrorsSheet, "E", "E", 60)
}

func (e *ResultExporter) writeResultsSheet(ctx context.Context, f *excelize.File, rows []vstoxx.OutputRow) error {
	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(ResultsSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(ResultHeaders), 14); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	header := make([]interface{}, len(ResultHeaders))
	for i, h := range ResultHeaders {
		header[i] = h
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cellRef, resultCells(row)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return sw.Flush()
}

func writeSummarySheet(f *excelize.File, s vstoxx.Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	entries := [][]interface{}{
		{"Rows", s.Rows},
		{"Rows using V6I1", s.NearRows},
		{"First date", formatDate(s.FirstDate)},
		{"Last date", formatDate(s.LastDate)},
		{"Mean deviation", s.MeanDeviation},
		{"Mean absolute deviation", s.MeanAbsDeviation},
		{"RMSE", s.RMSE},
		{"Max absolute deviation", s.MaxAbsDeviation},
		{"Max absolute deviation date", formatDate(s.MaxAbsDeviationDate)},
	}
	for i := range entries {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cellRef, &entries[i]); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 28)
}
