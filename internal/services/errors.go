package services

import "errors"

var (
	// ErrStoreDisabled is returned by operations that need persistence when
	// no store is configured
	ErrStoreDisabled = errors.New("index store is not configured")

	// ErrInvalidInput is returned for requests the service cannot act on
	ErrInvalidInput = errors.New("invalid input")
)
