package dataprocessing

import (
	"fmt"
	"time"

	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/vstoxx"
)

// ValidateDates checks that row dates are set and strictly increasing
func ValidateDates(rows []vstoxx.InputRow) error {
	var prev time.Time
	for i, row := range rows {
		if row.Date.IsZero() {
			return apierrors.NewAppValidationError(fmt.Sprintf("row %d has no date", i)).
				WithContext("index", i)
		}
		if i > 0 && !row.Date.After(prev) {
			msg := fmt.Sprintf("row %d date %s is not after %s", i,
				row.Date.Format(time.DateOnly), prev.Format(time.DateOnly))
			if row.Date.Equal(prev) {
				msg = fmt.Sprintf("row %d repeats date %s", i, row.Date.Format(time.DateOnly))
			}
			return apierrors.NewAppValidationError(msg).
				WithContext("index", i).
				WithContext("date", row.Date.Format(time.DateOnly))
		}
		prev = row.Date
	}
	return nil
}
