package vstoxx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Reading is a sub-index or index observation that may be absent
type Reading struct {
	Value float64
	Valid bool
}

// Value creates a present reading
func Value(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Absent creates a missing reading
func Absent() Reading {
	return Reading{}
}

// Present reports whether the reading holds a usable number.
// NaN and infinite values count as absent.
func (r Reading) Present() bool {
	return r.Valid && !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0)
}

// Float returns the value, or NaN when the reading is absent
func (r Reading) Float() float64 {
	if !r.Present() {
		return math.NaN()
	}
	return r.Value
}

// String formats the reading for logs and CSV output
func (r Reading) String() string {
	if !r.Present() {
		return ""
	}
	return fmt.Sprintf("%g", r.Value)
}

// MarshalJSON encodes an absent reading as null
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a number, null, or the string "NaN"
func (r *Reading) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Absent()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "nan") || strings.TrimSpace(s) == "" {
			*r = Absent()
			return nil
		}
		return fmt.Errorf("invalid reading %q", s)
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}
	*r = Value(v)
	return nil
}

// InputRow is one daily observation of the VSTOXX sub-indexes.
//
// V6I1 is the near-term sub-index (sub_index_near) and is absent for parts
// of the history. V6I2 (sub_index_mid) and V6I3 (sub_index_far) are the
// next two maturities. V2TX is the published VSTOXX value (reference_index)
// and is only used for the validation deviation.
type InputRow struct {
	Date time.Time `json:"date"`
	V6I1 Reading   `json:"v6i1"`
	V6I2 Reading   `json:"v6i2"`
	V6I3 Reading   `json:"v6i3"`
	V2TX Reading   `json:"v2tx"`
}

// OutputRow is an InputRow extended with the recalculated index.
// Life times are in seconds, counted in whole calendar days.
type OutputRow struct {
	InputRow

	SettlementDate1 time.Time `json:"settlement_date_1"`
	SettlementDate2 time.Time `json:"settlement_date_2"`
	LifeTime1       int64     `json:"life_time_1"`
	LifeTime2       int64     `json:"life_time_2"`
	UseNear         bool      `json:"use_near"`
	Source1         float64   `json:"source_1"`
	Source2         float64   `json:"source_2"`
	ComputedIndex   float64   `json:"computed_index"`
	Deviation       float64   `json:"deviation"`
}

// Horizon holds the time constants of the 30-day interpolation
type Horizon struct {
	SecondsPerYear   float64
	SecondsPer30Days float64
}

// DefaultHorizon returns the constants used by the published index
func DefaultHorizon() Horizon {
	return Horizon{
		SecondsPerYear:   365 * secondsPerDay,
		SecondsPer30Days: 30 * secondsPerDay,
	}
}

// IsValid checks that both constants are positive
func (h Horizon) IsValid() bool {
	return h.SecondsPerYear > 0 && h.SecondsPer30Days > 0
}

// Mode selects how row failures are handled
type Mode string

const (
	// ModeFailFast stops at the first failing row
	ModeFailFast Mode = "fail_fast"
	// ModeCollectAll computes every row and reports all failures together
	ModeCollectAll Mode = "collect_all"
)

// ParseMode converts a configuration string to a Mode.
// An empty string selects ModeFailFast.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFailFast:
		return ModeFailFast, nil
	case ModeCollectAll:
		return ModeCollectAll, nil
	default:
		return "", fmt.Errorf("unknown error mode %q", s)
	}
}

// Options configures a Calculator
type Options struct {
	Mode    Mode
	Workers int // values above 1 compute rows in parallel
}

// DefaultOptions returns sequential fail-fast options
func DefaultOptions() Options {
	return Options{Mode: ModeFailFast, Workers: 1}
}
