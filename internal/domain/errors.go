package domain

import "errors"

var (
	// ErrStoreNotConfigured is returned by every operation of the fail-fast store client.
	ErrStoreNotConfigured = errors.New("store client not initialized: set SURREAL_URL, SURREAL_NS and SURREAL_DB")

	// ErrFetchFailed wraps any failure to load one of the remote collections.
	ErrFetchFailed = errors.New("failed to fetch remote data")
)
