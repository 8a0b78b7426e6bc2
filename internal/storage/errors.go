// Package storage defines the persistence contract for recalculated VSTOXX rows.
package storage

import (
	"context"
	"errors"
	"time"

	"vstoxxcli/internal/vstoxx"
)

var (
	// ErrNotFound is returned when no row exists for a date.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a query or row cannot be stored.
	ErrInvalidInput = errors.New("invalid input")
)

// IndexStore persists computed rows keyed by observation date.
type IndexStore interface {
	// Upsert inserts rows, replacing any row with the same date. Returns the
	// number of rows written.
	Upsert(ctx context.Context, rows []vstoxx.OutputRow) (int, error)
	// Get returns the row for date or ErrNotFound.
	Get(ctx context.Context, date time.Time) (vstoxx.OutputRow, error)
	// Range returns rows with from <= date <= to ordered by date.
	Range(ctx context.Context, from, to time.Time) ([]vstoxx.OutputRow, error)
}
