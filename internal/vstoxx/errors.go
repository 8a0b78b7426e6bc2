package vstoxx

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies a row failure
type ErrorKind string

const (
	KindMissingField       ErrorKind = "missing_field"
	KindInvalidDate        ErrorKind = "invalid_date"
	KindDegenerateLifetime ErrorKind = "degenerate_lifetime"
	KindNegativeRadicand   ErrorKind = "negative_radicand"
)

// Sentinels matched by errors.Is against a RowError of the same kind
var (
	ErrMissingField       = errors.New("missing field")
	ErrInvalidDate        = errors.New("invalid date")
	ErrDegenerateLifetime = errors.New("degenerate lifetime")
	ErrNegativeRadicand   = errors.New("negative radicand")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingField:
		return ErrMissingField
	case KindInvalidDate:
		return ErrInvalidDate
	case KindDegenerateLifetime:
		return ErrDegenerateLifetime
	case KindNegativeRadicand:
		return ErrNegativeRadicand
	default:
		return nil
	}
}

// RowError reports why a single input row could not be computed
type RowError struct {
	Kind    ErrorKind `json:"kind"`
	Index   int       `json:"index"`
	Date    time.Time `json:"date"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *RowError) Error() string {
	if e == nil {
		return "unknown row error"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "row %d", e.Index)
	if !e.Date.IsZero() {
		fmt.Fprintf(&b, " (%s)", e.Date.Format(time.DateOnly))
	}
	fmt.Fprintf(&b, ": [%s] %s", e.Kind, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *RowError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches the sentinel error of the row error's kind
func (e *RowError) Is(target error) bool {
	if e == nil {
		return false
	}
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewMissingFieldError creates an error for an absent mandatory field
func NewMissingFieldError(index int, date time.Time, field string) *RowError {
	return &RowError{
		Kind:    KindMissingField,
		Index:   index,
		Date:    date,
		Field:   field,
		Message: fmt.Sprintf("required field %s is absent", field),
	}
}

// NewInvalidDateError creates an error for a date without settlement dates
func NewInvalidDateError(index int, date time.Time, cause error) *RowError {
	return &RowError{
		Kind:    KindInvalidDate,
		Index:   index,
		Date:    date,
		Field:   "date",
		Message: "cannot resolve settlement dates",
		Cause:   cause,
	}
}

// NewDegenerateLifetimeError creates an error for coinciding life times
func NewDegenerateLifetimeError(index int, date time.Time, lifeTime1, lifeTime2 int64) *RowError {
	return &RowError{
		Kind:    KindDegenerateLifetime,
		Index:   index,
		Date:    date,
		Message: fmt.Sprintf("life time 2 (%ds) does not exceed life time 1 (%ds)", lifeTime2, lifeTime1),
	}
}

// NewNegativeRadicandError creates an error for a negative interpolated variance
func NewNegativeRadicandError(index int, date time.Time, radicand float64) *RowError {
	return &RowError{
		Kind:    KindNegativeRadicand,
		Index:   index,
		Date:    date,
		Message: fmt.Sprintf("interpolated variance %g is negative", radicand),
	}
}

// RowErrors collects the failures of a collect_all computation
type RowErrors []*RowError

// Error implements the error interface
func (e RowErrors) Error() string {
	switch len(e) {
	case 0:
		return "no row errors"
	case 1:
		return e[0].Error()
	default:
		return fmt.Sprintf("%d rows failed; first: %s", len(e), e[0].Error())
	}
}

// Unwrap exposes every row error to errors.Is and errors.As
func (e RowErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, re := range e {
		errs[i] = re
	}
	return errs
}

// CountByKind tallies the collected errors per kind
func (e RowErrors) CountByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, re := range e {
		counts[re.Kind]++
	}
	return counts
}

// AsRowErrors extracts the row errors carried by err, if any
func AsRowErrors(err error) RowErrors {
	if err == nil {
		return nil
	}
	var many RowErrors
	if errors.As(err, &many) {
		return many
	}
	var one *RowError
	if errors.As(err, &one) {
		return RowErrors{one}
	}
	return nil
}
