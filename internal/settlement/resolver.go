package settlement

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when a date cannot be placed on the settlement calendar.
var ErrInvalidDate = errors.New("invalid date")

const (
	minYear = 1
	maxYear = 9999

	// thirdWeekOffset is the distance in days from the first Friday to the third.
	thirdWeekOffset = 14
)

// Resolver derives the settlement dates of the two option series that feed
// the index on a given observation date. Options expire on the third Friday
// of the contract month.
type Resolver struct{}

// NewResolver creates a third-Friday settlement resolver
func NewResolver() Resolver {
	return Resolver{}
}

// Resolve returns the current and the next settlement date for date.
//
// The current settlement is the third Friday of date's month if date falls on
// or before it, otherwise the third Friday of the following month. A date that
// is itself a settlement day keeps that day as the current settlement, so its
// life time is zero. The next settlement is always one contract month later.
// Only the calendar day of date is considered; results are midnight in date's
// location.
func (Resolver) Resolve(date time.Time) (time.Time, time.Time, error) {
	if err := checkDate(date); err != nil {
		return time.Time{}, time.Time{}, err
	}

	day := truncateToDay(date)
	first := ThirdFriday(day.Year(), day.Month(), day.Location())
	if day.After(first) {
		first = nextMonthThirdFriday(first)
	}

	return first, nextMonthThirdFriday(first), nil
}

// Resolve resolves settlement dates with the default third-Friday rule
func Resolve(date time.Time) (time.Time, time.Time, error) {
	return Resolver{}.Resolve(date)
}

// Next returns the first settlement date strictly after date
func Next(date time.Time) (time.Time, error) {
	first, second, err := Resolve(date)
	if err != nil {
		return time.Time{}, err
	}
	if first.Equal(truncateToDay(date)) {
		return second, nil
	}
	return first, nil
}

// Between lists every settlement date in the closed range [from, to].
func Between(from, to time.Time) ([]time.Time, error) {
	if err := checkDate(from); err != nil {
		return nil, err
	}
	if err := checkDate(to); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s before start %s",
			ErrInvalidDate, to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	end := truncateToDay(to)
	current, _, err := Resolve(from)
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for !current.After(end) {
		dates = append(dates, current)
		current = nextMonthThirdFriday(current)
	}
	return dates, nil
}

// ThirdFriday returns midnight of the third Friday of the given month
func ThirdFriday(year int, month time.Month, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+thirdWeekOffset)
}

// IsSettlementDay reports whether date falls on a third Friday
func IsSettlementDay(date time.Time) bool {
	day := truncateToDay(date)
	return day.Equal(ThirdFriday(day.Year(), day.Month(), day.Location()))
}

// DaysBetween counts the whole days elapsed from a to b on the wall clock.
// A partial day truncates toward zero, so 2014-01-02 18:00 is 14 days before
// 2014-01-17 00:00. Daylight-saving shifts are ignored. Spans beyond
// time.Duration (about 290 years) saturate.
func DaysBetween(a, b time.Time) int {
	return int(wallClock(b).Sub(wallClock(a)) / (24 * time.Hour))
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func nextMonthThirdFriday(settlement time.Time) time.Time {
	firstOfNext := time.Date(settlement.Year(), settlement.Month()+1, 1, 0, 0, 0, 0, settlement.Location())
	return ThirdFriday(firstOfNext.Year(), firstOfNext.Month(), firstOfNext.Location())
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func checkDate(date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: zero time", ErrInvalidDate)
	}
	// the next settlement may fall in the following year
	if y := date.Year(); y < minYear || y >= maxYear {
		return fmt.Errorf("%w: year %d outside %d..%d", ErrInvalidDate, y, minYear, maxYear-1)
	}
	return nil
}
