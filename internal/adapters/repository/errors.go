package repository

import "errors"

var (
	// ErrEmptyCompanyID rejects snapshots without an id to key them by.
	ErrEmptyCompanyID = errors.New("empty company id")
)
