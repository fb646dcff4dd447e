package domain

import "errors"

var (
	// ErrNotFound is returned when a listing is absent from both the held set and the catalog
	ErrNotFound = errors.New("listing not found")

	// ErrFetchFailed wraps any failure of the catalog to deliver listings
	ErrFetchFailed = errors.New("fetch listings failed")
)
