package vstoxx

import (
	"math"
	"time"
)

// Summary describes how closely recomputed values track the published index
type Summary struct {
	Rows                int       `json:"rows"`
	NearRows            int       `json:"near_rows"`
	FirstDate           time.Time `json:"first_date"`
	LastDate            time.Time `json:"last_date"`
	MeanDeviation       float64   `json:"mean_deviation"`
	MeanAbsDeviation    float64   `json:"mean_abs_deviation"`
	RMSE                float64   `json:"rmse"`
	MaxAbsDeviation     float64   `json:"max_abs_deviation"`
	MaxAbsDeviationDate time.Time `json:"max_abs_deviation_date"`
}

// Summarize aggregates the deviation column of computed rows
func Summarize(rows []OutputRow) Summary {
	var s Summary
	if len(rows) == 0 {
		return s
	}

	s.Rows = len(rows)
	s.FirstDate = rows[0].Date
	s.LastDate = rows[0].Date

	var sum, sumAbs, sumSq float64
	for _, r := range rows {
		if r.UseNear {
			s.NearRows++
		}
		if r.Date.Before(s.FirstDate) {
			s.FirstDate = r.Date
		}
		if r.Date.After(s.LastDate) {
			s.LastDate = r.Date
		}

		abs := math.Abs(r.Deviation)
		sum += r.Deviation
		sumAbs += abs
		sumSq += r.Deviation * r.Deviation
		if abs > s.MaxAbsDeviation || s.MaxAbsDeviationDate.IsZero() {
			s.MaxAbsDeviation = abs
			s.MaxAbsDeviationDate = r.Date
		}
	}

	n := float64(len(rows))
	s.MeanDeviation = sum / n
	s.MeanAbsDeviation = sumAbs / n
	s.RMSE = math.Sqrt(sumSq / n)
	return s
}
