package pgconn

import "errors"

var (
	// ErrFailedToParseDBConfig is returned when the connection string cannot be parsed.
	ErrFailedToParseDBConfig = errors.New("pgconn: failed to parse database configuration")

	// ErrFailedToOpenConnection is returned when the pool could not be established
	// after all retry attempts.
	ErrFailedToOpenConnection = errors.New("pgconn: failed to open database connection")

	// ErrHealthcheckFailed is returned when a healthcheck ping fails.
	ErrHealthcheckFailed = errors.New("pgconn: healthcheck failed")
)
