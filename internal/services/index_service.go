package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"vstoxxcli/internal/dataprocessing"
	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/exporter"
	"vstoxxcli/internal/settlement"
	"vstoxxcli/internal/storage"
	"vstoxxcli/internal/vstoxx"
)

// ComputeRequest selects the input and overrides for one computation.
// Zero Mode or Workers fall back to the service defaults.
type ComputeRequest struct {
	Rows    []vstoxx.InputRow
	Mode    vstoxx.Mode
	Workers int
	Persist bool
}

// ComputeResult is the outcome of a computation. Errors is only set in
// collect_all mode; fail_fast failures are returned as the error.
type ComputeResult struct {
	Rows    []vstoxx.OutputRow `json:"rows"`
	Errors  vstoxx.RowErrors   `json:"errors,omitempty"`
	Summary vstoxx.Summary     `json:"summary"`
	Stored  int                `json:"stored"`
}

// ExportPaths names the report files written by ComputeFile. Empty entries are skipped.
type ExportPaths struct {
	CSV  string
	XLSX string
}

// FileResult extends ComputeResult with the written report locations
type FileResult struct {
	ComputeResult
	Input   string
	Outputs []string
}

// IndexService ties loading, computation, export and persistence together
type IndexService struct {
	defaults vstoxx.Options
	recorder vstoxx.Recorder
	loader   *dataprocessing.Loader
	exporter *exporter.ResultExporter
	store    storage.IndexStore
	logger   *slog.Logger
}

// IndexServiceOptions configures an IndexService
type IndexServiceOptions struct {
	Defaults vstoxx.Options
	Recorder vstoxx.Recorder // optional
	Loader   *dataprocessing.Loader
	Exporter *exporter.ResultExporter // optional, required by ComputeFile exports
	Store    storage.IndexStore       // optional
}

// NewIndexService creates the service
func NewIndexService(opts IndexServiceOptions, logger *slog.Logger) *IndexService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Loader == nil {
		opts.Loader = dataprocessing.NewLoader(dataprocessing.DefaultLoaderOptions(), logger)
	}
	return &IndexService{
		defaults: opts.Defaults,
		recorder: opts.Recorder,
		loader:   opts.Loader,
		exporter: opts.Exporter,
		store:    opts.Store,
		logger:   logger.With(slog.String("service", "index")),
	}
}

// StoreEnabled reports whether results can be persisted
func (s *IndexService) StoreEnabled() bool {
	return s.store != nil
}

func (s *IndexService) calculator(mode vstoxx.Mode, workers int) *vstoxx.Calculator {
	opts := s.defaults
	if mode != "" {
		opts.Mode = mode
	}
	if workers > 0 {
		opts.Workers = workers
	}
	calc := vstoxx.NewCalculator(opts, s.logger)
	if s.recorder != nil {
		calc.SetRecorder(s.recorder)
	}
	return calc
}

// Compute derives the index for req.Rows and optionally stores the result.
// A collect_all run with failing rows still returns and stores the rows that
// succeeded.
func (s *IndexService) Compute(ctx context.Context, req ComputeRequest) (*ComputeResult, error) {
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to compute", ErrInvalidInput)
	}
	if req.Persist && s.store == nil {
		return nil, ErrStoreDisabled
	}

	rows, err := s.calculator(req.Mode, req.Workers).Compute(ctx, req.Rows)
	result := &ComputeResult{Rows: rows}
	if err != nil {
		var rowErrs vstoxx.RowErrors
		if !errors.As(err, &rowErrs) {
			return nil, apierrors.NewComputationError("compute index", err)
		}
		result.Errors = rowErrs
	}
	result.Summary = vstoxx.Summarize(rows)

	if req.Persist && len(rows) > 0 {
		stored, err := s.store.Upsert(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("store results: %w", err)
		}
		result.Stored = stored
	}
	return result, nil
}

// ComputeReader parses a CSV history from r and computes it
func (s *IndexService) ComputeReader(ctx context.Context, r io.Reader, req ComputeRequest) (*ComputeResult, error) {
	rows, err := s.loader.ReadCSV(ctx, r)
	if err != nil {
		return nil, err
	}
	req.Rows = rows
	return s.Compute(ctx, req)
}

// ComputeFile loads input, computes it and writes the requested reports
func (s *IndexService) ComputeFile(ctx context.Context, input string, out ExportPaths, req ComputeRequest) (*FileResult, error) {
	rows, err := s.loader.LoadFile(ctx, input)
	if err != nil {
		return nil, err
	}
	req.Rows = rows

	res, err := s.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &FileResult{ComputeResult: *res, Input: input}

	if (out.CSV != "" || out.XLSX != "") && s.exporter == nil {
		return nil, errors.New("no exporter configured")
	}
	if out.CSV != "" {
		path, err := s.exporter.ExportCSV(ctx, out.CSV, res.Rows)
		if err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, path)
	}
	if out.XLSX != "" {
		path, err := s.exporter.ExportXLSX(ctx, out.XLSX, res.Rows, res.Errors)
		if err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, path)
	}

	s.logger.InfoContext(ctx, "computed index file",
		slog.String("input", input),
		slog.Int("rows", len(res.Rows)),
		slog.Int("failed", len(res.Errors)),
		slog.Float64("rmse", res.Summary.RMSE))
	return result, nil
}

// SettlementDates is the resolver output for one observation date
type SettlementDates struct {
	Date            time.Time `json:"date"`
	SettlementDate1 time.Time `json:"settlement_date_1"`
	SettlementDate2 time.Time `json:"settlement_date_2"`
	LifeTimeDays1   int       `json:"life_time_days_1"`
	LifeTimeDays2   int       `json:"life_time_days_2"`
}

// Settlements resolves the settlement pair of date
func (s *IndexService) Settlements(date time.Time) (SettlementDates, error) {
	first, second, err := settlement.Resolve(date)
	if err != nil {
		return SettlementDates{}, err
	}
	return SettlementDates{
		Date:            date,
		SettlementDate1: first,
		SettlementDate2: second,
		LifeTimeDays1:   settlement.DaysBetween(date, first),
		LifeTimeDays2:   settlement.DaysBetween(date, second),
	}, nil
}

// SettlementCalendar lists the settlement dates in [from, to]
func (s *IndexService) SettlementCalendar(from, to time.Time) ([]time.Time, error) {
	return settlement.Between(from, to)
}

// History reads stored rows in [from, to]
func (s *IndexService) History(ctx context.Context, from, to time.Time) ([]vstoxx.OutputRow, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	return s.store.Range(ctx, from, to)
}
