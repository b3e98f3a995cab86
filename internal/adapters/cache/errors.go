package cache

import "errors"

var (
	// ErrCacheUnavailable marks backend connectivity failures.
	ErrCacheUnavailable = errors.New("result cache unavailable")
)
