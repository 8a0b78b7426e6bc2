package http

import (
	"context"
	"io"
	"time"

	"vstoxxcli/internal/services"
	"vstoxxcli/internal/vstoxx"
)

// IndexServiceInterface defines the index operations used by the handlers
type IndexServiceInterface interface {
	Compute(ctx context.Context, req services.ComputeRequest) (*services.ComputeResult, error)
	ComputeReader(ctx context.Context, r io.Reader, req services.ComputeRequest) (*services.ComputeResult, error)
	History(ctx context.Context, from, to time.Time) ([]vstoxx.OutputRow, error)
	Settlements(date time.Time) (services.SettlementDates, error)
	SettlementCalendar(from, to time.Time) ([]time.Time, error)
	StoreEnabled() bool
}

// ResultWriter renders computed rows, and the rows that failed, as report files
type ResultWriter interface {
	WriteCSV(w io.Writer, rows []vstoxx.OutputRow, errs vstoxx.RowErrors) error
	WriteXLSX(ctx context.Context, w io.Writer, rows []vstoxx.OutputRow, errs vstoxx.RowErrors) error
}

// HealthServiceInterface defines the health operations used by the handlers
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
