package similarity

import "errors"

// Sentinel kinds for similarity errors.
var (
	ErrDimensionMismatch = errors.New("culture vector length mismatch")
)
