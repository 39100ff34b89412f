package persist

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("persist: entry not found")

	// ErrDuplicate is returned by Create when the key already exists.
	ErrDuplicate = errors.New("persist: entry already exists")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("persist: failed to marshal value")

	// ErrInvalidConversion is returned when a stored value cannot be
	// decoded into the shape requested by Get.
	ErrInvalidConversion = errors.New("persist: stored value does not match requested type")
)
