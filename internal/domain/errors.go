package domain

import "errors"

var (
	ErrProviderUnavailable     = errors.New("provider unavailable")
	ErrProviderInvalidResponse = errors.New("provider returned invalid response")
	ErrTimeout                 = errors.New("timeout")
	ErrDeadlineExceeded        = errors.New("round deadline exceeded")
	ErrAllProvidersExhausted   = errors.New("all rate providers exhausted")
	ErrSnapshotNotFound        = errors.New("rate snapshot not found")
)
