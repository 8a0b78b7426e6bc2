package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"vstoxxcli/internal/storage"
	"vstoxxcli/internal/vstoxx"
)

const indexColumns = `
	date, v2tx, v6i1, v6i2, v6i3,
	settlement_date_1, settlement_date_2, life_time_1, life_time_2,
	use_near, source_1, source_2, computed_index, deviation`

// IndexStore implements storage.IndexStore using PostgreSQL.
type IndexStore struct {
	pool  *Pool
	table string
}

// NewIndexStore creates a store over table. The table must exist; see Pool.Migrate.
func NewIndexStore(pool *Pool, table string) (*IndexStore, error) {
	ident, err := quoteTable(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	return &IndexStore{pool: pool, table: ident}, nil
}

// Compile-time interface check.
var _ storage.IndexStore = (*IndexStore)(nil)

// Upsert writes all rows in one transaction. A row with an existing date
// replaces the stored one.
func (s *IndexStore) Upsert(ctx context.Context, rows []vstoxx.OutputRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (date) DO UPDATE SET
			v2tx = EXCLUDED.v2tx,
			v6i1 = EXCLUDED.v6i1,
			v6i2 = EXCLUDED.v6i2,
			v6i3 = EXCLUDED.v6i3,
			settlement_date_1 = EXCLUDED.settlement_date_1,
			settlement_date_2 = EXCLUDED.settlement_date_2,
			life_time_1 = EXCLUDED.life_time_1,
			life_time_2 = EXCLUDED.life_time_2,
			use_near = EXCLUDED.use_near,
			source_1 = EXCLUDED.source_1,
			source_2 = EXCLUDED.source_2,
			computed_index = EXCLUDED.computed_index,
			deviation = EXCLUDED.deviation,
			updated_at = now()
	`, s.table, indexColumns)

	batch := &pgx.Batch{}
	for i, r := range rows {
		if r.Date.IsZero() {
			return 0, fmt.Errorf("%w: row %d has no date", storage.ErrInvalidInput, i)
		}
		batch.Queue(query,
			r.Date, float8(r.V2TX), float8(r.V6I1), float8(r.V6I2), float8(r.V6I3),
			r.SettlementDate1, r.SettlementDate2, r.LifeTime1, r.LifeTime2,
			r.UseNear, r.Source1, r.Source2, r.ComputedIndex, r.Deviation,
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upsert row %s: %w", rows[i].Date.Format(time.DateOnly), err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(rows), nil
}

// Get retrieves the row for date. Returns ErrNotFound if not exists.
func (s *IndexStore) Get(ctx context.Context, date time.Time) (vstoxx.OutputRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE date = $1`, indexColumns, s.table)

	row, err := scanIndexRow(s.pool.QueryRow(ctx, query, date))
	if err != nil {
		if isNotFoundError(err) {
			return vstoxx.OutputRow{}, storage.ErrNotFound
		}
		return vstoxx.OutputRow{}, fmt.Errorf("get index row: %w", err)
	}
	return row, nil
}

// Range retrieves rows with from <= date <= to ordered by date.
func (s *IndexStore) Range(ctx context.Context, from, to time.Time) ([]vstoxx.OutputRow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s before start %s", storage.ErrInvalidInput,
			to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`, indexColumns, s.table)

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query index range: %w", err)
	}
	defer rows.Close()

	var result []vstoxx.OutputRow
	for rows.Next() {
		row, err := scanIndexRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index rows: %w", err)
	}
	return result, nil
}

func scanIndexRow(row pgx.Row) (vstoxx.OutputRow, error) {
	var (
		r                      vstoxx.OutputRow
		v2tx, v6i1, v6i2, v6i3 pgtype.Float8
	)
	err := row.Scan(
		&r.Date, &v2tx, &v6i1, &v6i2, &v6i3,
		&r.SettlementDate1, &r.SettlementDate2, &r.LifeTime1, &r.LifeTime2,
		&r.UseNear, &r.Source1, &r.Source2, &r.ComputedIndex, &r.Deviation,
	)
	if err != nil {
		return vstoxx.OutputRow{}, err
	}
	r.V2TX = reading(v2tx)
	r.V6I1 = reading(v6i1)
	r.V6I2 = reading(v6i2)
	r.V6I3 = reading(v6i3)
	return r, nil
}

func float8(r vstoxx.Reading) pgtype.Float8 {
	return pgtype.Float8{Float64: r.Value, Valid: r.Present()}
}

func reading(f pgtype.Float8) vstoxx.Reading {
	if !f.Valid {
		return vstoxx.Absent()
	}
	return vstoxx.Value(f.Float64)
}
