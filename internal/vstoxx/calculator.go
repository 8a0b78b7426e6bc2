package vstoxx

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"vstoxxcli/internal/settlement"
)

// SettlementResolver returns the current and next settlement date for an
// observation date
type SettlementResolver interface {
	Resolve(date time.Time) (time.Time, time.Time, error)
}

// Calculator recomputes the VSTOXX index from its sub-indexes
type Calculator struct {
	resolver SettlementResolver
	horizon  Horizon
	options  Options
	recorder Recorder
	logger   *slog.Logger
}

// NewCalculator creates a calculator using third-Friday settlement dates and
// the default 30-day horizon
func NewCalculator(opts Options, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeFailFast
	}

	return &Calculator{
		resolver: settlement.NewResolver(),
		horizon:  DefaultHorizon(),
		options:  opts,
		recorder: noopRecorder{},
		logger:   logger.With(slog.String("component", "vstoxx_calculator")),
	}
}

// SetResolver replaces the settlement date resolver
func (c *Calculator) SetResolver(r SettlementResolver) {
	if r == nil {
		r = settlement.NewResolver()
	}
	c.resolver = r
}

// SetHorizon replaces the interpolation constants
func (c *Calculator) SetHorizon(h Horizon) error {
	if !h.IsValid() {
		return fmt.Errorf("invalid horizon: year=%gs, period=%gs", h.SecondsPerYear, h.SecondsPer30Days)
	}
	c.horizon = h
	return nil
}

// SetRecorder attaches telemetry; nil disables it
func (c *Calculator) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	c.recorder = r
}

// Options returns the calculator's options
func (c *Calculator) Options() Options {
	return c.options
}

// Compute derives the index for every row. The input slice is not modified.
//
// In fail_fast mode the first failing row, in input order, is returned as a
// *RowError and no rows are returned. In collect_all mode every row is
// attempted; the successful rows are returned in input order together with
// a RowErrors value when at least one row failed.
func (c *Calculator) Compute(ctx context.Context, rows []InputRow) ([]OutputRow, error) {
	start := time.Now()
	ctx = c.recorder.ComputeStarted(ctx, len(rows), c.options)

	c.logger.InfoContext(ctx, "starting index computation",
		slog.Int("rows", len(rows)),
		slog.String("mode", string(c.options.Mode)),
		slog.Int("workers", c.options.Workers))

	var (
		out []OutputRow
		err error
	)
	if c.options.Workers > 1 && len(rows) > 1 {
		out, err = c.computeParallel(ctx, rows)
	} else {
		out, err = c.computeSequential(ctx, rows)
	}

	elapsed := time.Since(start)
	c.recorder.ComputeFinished(ctx, len(out), elapsed, err)

	if err != nil {
		c.logger.WarnContext(ctx, "index computation finished with errors",
			slog.Int("computed", len(out)),
			slog.Int("failed", len(AsRowErrors(err))),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return out, err
	}

	c.logger.InfoContext(ctx, "index computation completed",
		slog.Int("computed", len(out)),
		slog.Duration("duration", elapsed))
	return out, nil
}

func (c *Calculator) computeSequential(ctx context.Context, rows []InputRow) ([]OutputRow, error) {
	out := make([]OutputRow, 0, len(rows))
	var failures RowErrors

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("computation cancelled at row %d: %w", i, err)
		}

		row, rowErr := c.ComputeRow(i, rows[i])
		if rowErr != nil {
			c.rowFailed(ctx, rowErr)
			if c.options.Mode == ModeFailFast {
				return nil, rowErr
			}
			failures = append(failures, rowErr)
			continue
		}
		out = append(out, row)
	}

	if len(failures) > 0 {
		return out, failures
	}
	return out, nil
}

// computeParallel fans rows out to at most Workers goroutines. Each row owns
// its result slot, so ordering never depends on scheduling. In fail_fast mode
// rows after the lowest failing index are skipped; every row before it still
// runs, which keeps the reported error identical to the sequential path.
func (c *Calculator) computeParallel(ctx context.Context, rows []InputRow) ([]OutputRow, error) {
	results := make([]OutputRow, len(rows))
	failures := make([]*RowError, len(rows))
	failFast := c.options.Mode == ModeFailFast

	var firstFailure atomic.Int64
	firstFailure.Store(int64(len(rows)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.options.Workers)

	for i := range rows {
		if failFast && int64(i) > firstFailure.Load() {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if failFast && int64(i) > firstFailure.Load() {
				return nil
			}
			row, rowErr := c.ComputeRow(i, rows[i])
			if rowErr != nil {
				failures[i] = rowErr
				lowerTo(&firstFailure, int64(i))
				return nil
			}
			results[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel computation cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parallel computation cancelled: %w", err)
	}

	if failFast {
		if idx := firstFailure.Load(); idx < int64(len(rows)) {
			c.rowFailed(ctx, failures[idx])
			return nil, failures[idx]
		}
		return results, nil
	}

	out := make([]OutputRow, 0, len(rows))
	var collected RowErrors
	for i := range rows {
		if failures[i] != nil {
			c.rowFailed(ctx, failures[i])
			collected = append(collected, failures[i])
			continue
		}
		out = append(out, results[i])
	}
	if len(collected) > 0 {
		return out, collected
	}
	return out, nil
}

func lowerTo(v *atomic.Int64, candidate int64) {
	for {
		current := v.Load()
		if candidate >= current || v.CompareAndSwap(current, candidate) {
			return
		}
	}
}

func (c *Calculator) rowFailed(ctx context.Context, err *RowError) {
	c.recorder.RowFailed(ctx, err)
	c.logger.DebugContext(ctx, "row failed",
		slog.Int("index", err.Index),
		slog.String("kind", string(err.Kind)),
		slog.String("error", err.Error()))
}

// ComputeRow derives the output for a single row; index is the row's
// position and is only used for error reporting.
func (c *Calculator) ComputeRow(index int, in InputRow) (OutputRow, *RowError) {
	if in.Date.IsZero() {
		return OutputRow{}, NewMissingFieldError(index, in.Date, "date")
	}
	if !in.V6I2.Present() {
		return OutputRow{}, NewMissingFieldError(index, in.Date, "V6I2")
	}
	if !in.V2TX.Present() {
		return OutputRow{}, NewMissingFieldError(index, in.Date, "V2TX")
	}

	useNear := in.V6I1.Present()
	// the far sub-index is only needed when the near one is missing
	if !useNear && !in.V6I3.Present() {
		return OutputRow{}, NewMissingFieldError(index, in.Date, "V6I3")
	}

	settlement1, settlement2, err := c.resolver.Resolve(in.Date)
	if err != nil {
		return OutputRow{}, NewInvalidDateError(index, in.Date, err)
	}

	lifeTime1 := int64(settlement.DaysBetween(in.Date, settlement1)) * secondsPerDay
	lifeTime2 := int64(settlement.DaysBetween(in.Date, settlement2)) * secondsPerDay
	if lifeTime1 < 0 {
		return OutputRow{}, NewInvalidDateError(index, in.Date,
			fmt.Errorf("settlement date %s precedes observation", settlement1.Format(time.DateOnly)))
	}
	if lifeTime2 <= lifeTime1 {
		return OutputRow{}, NewDegenerateLifetimeError(index, in.Date, lifeTime1, lifeTime2)
	}

	source1, source2 := in.V6I2.Value, in.V6I3.Value
	if useNear {
		source1, source2 = in.V6I1.Value, in.V6I2.Value
	}

	radicand := c.horizon.Variance(float64(lifeTime1), float64(lifeTime2), source1, source2)
	if radicand < 0 || math.IsNaN(radicand) {
		return OutputRow{}, NewNegativeRadicandError(index, in.Date, radicand)
	}
	computed := math.Sqrt(radicand)

	return OutputRow{
		InputRow:        in,
		SettlementDate1: settlement1,
		SettlementDate2: settlement2,
		LifeTime1:       lifeTime1,
		LifeTime2:       lifeTime2,
		UseNear:         useNear,
		Source1:         source1,
		Source2:         source2,
		ComputedIndex:   computed,
		Deviation:       in.V2TX.Value - computed,
	}, nil
}

// Variance interpolates the squared index for the 30-day horizon from two
// sub-index values and their life times in seconds. The caller must ensure
// lifeTime2 > lifeTime1.
func (h Horizon) Variance(lifeTime1, lifeTime2, source1, source2 float64) float64 {
	span := lifeTime2 - lifeTime1
	term1 := lifeTime1 / h.SecondsPerYear * source1 * source1 *
		((lifeTime2 - h.SecondsPer30Days) / span)
	term2 := lifeTime2 / h.SecondsPerYear * source2 * source2 *
		((h.SecondsPer30Days - lifeTime1) / span)
	return (term1 + term2) * h.SecondsPerYear / h.SecondsPer30Days
}
