package vstoxx

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowErrorMessage(t *testing.T) {
	date := time.Date(2014, time.January, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		err      *RowError
		contains []string
		sentinel error
	}{
		{
			name:     "missing field",
			err:      NewMissingFieldError(3, date, "V6I2"),
			contains: []string{"row 3", "2014-01-02", "missing_field", "V6I2"},
			sentinel: ErrMissingField,
		},
		{
			name:     "invalid date",
			err:      NewInvalidDateError(0, time.Time{}, errors.New("year out of range")),
			contains: []string{"row 0:", "invalid_date", "year out of range"},
			sentinel: ErrInvalidDate,
		},
		{
			name:     "degenerate lifetime",
			err:      NewDegenerateLifetimeError(7, date, 86400, 86400),
			contains: []string{"degenerate_lifetime", "86400s"},
			sentinel: ErrDegenerateLifetime,
		},
		{
			name:     "negative radicand",
			err:      NewNegativeRadicandError(9, date, -12.5),
			contains: []string{"negative_radicand", "-12.5"},
			sentinel: ErrNegativeRadicand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
			assert.ErrorIs(t, tt.err, tt.sentinel)

			for _, other := range []error{ErrMissingField, ErrInvalidDate, ErrDegenerateLifetime, ErrNegativeRadicand} {
				if other != tt.sentinel {
					assert.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}
}

func TestRowErrorNil(t *testing.T) {
	var e *RowError
	assert.Equal(t, "unknown row error", e.Error())
	assert.Nil(t, e.Unwrap())
	assert.False(t, e.Is(ErrMissingField))
}

func TestRowErrorsWrapping(t *testing.T) {
	date := time.Date(2014, time.January, 2, 0, 0, 0, 0, time.UTC)
	errs := RowErrors{
		NewMissingFieldError(1, date, "V2TX"),
		NewNegativeRadicandError(4, date, -1),
		NewMissingFieldError(8, date, "V6I2"),
	}

	assert.Contains(t, errs.Error(), "3 rows failed")
	assert.ErrorIs(t, errs, ErrNegativeRadicand)
	assert.NotErrorIs(t, errs, ErrInvalidDate)
	assert.Equal(t, map[ErrorKind]int{KindMissingField: 2, KindNegativeRadicand: 1}, errs.CountByKind())

	var first *RowError
	require.ErrorAs(t, errs, &first)
	assert.Equal(t, 1, first.Index)

	assert.Equal(t, "no row errors", RowErrors{}.Error())
	assert.Equal(t, errs[0].Error(), errs[:1].Error())
}

func TestAsRowErrors(t *testing.T) {
	single := NewMissingFieldError(2, time.Time{}, "V6I3")
	many := RowErrors{single, NewInvalidDateError(5, time.Time{}, nil)}

	assert.Nil(t, AsRowErrors(nil))
	assert.Nil(t, AsRowErrors(errors.New("plain")))
	assert.Equal(t, RowErrors{single}, AsRowErrors(single))
	assert.Equal(t, RowErrors{single}, AsRowErrors(fmt.Errorf("load: %w", single)))
	assert.Equal(t, many, AsRowErrors(fmt.Errorf("compute: %w", many)))
}
