package exchange

import "errors"

var (
	// ErrNotClaimed is returned when a job was already claimed (or never
	// existed) by the time the rename was attempted.
	ErrNotClaimed = errors.New("job not claimed")
)
