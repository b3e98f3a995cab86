package features

import "errors"

// Sentinel kinds for feature service errors.
var (
	// ErrServiceUnavailable marks transport-level failures. Callers may
	// retry or degrade to treating affected companies as having no data.
	ErrServiceUnavailable = errors.New("feature service unavailable")
)
