package engine

import "errors"

var (
	// ErrUnknownCompany is returned when the query company has no features.
	ErrUnknownCompany = errors.New("unknown company")

	// ErrFeaturesNotFound is returned by Explain when either side of the
	// pair has no features.
	ErrFeaturesNotFound = errors.New("features not found")
)
