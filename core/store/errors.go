package store

import "errors"

var (
	// ErrConflict signals that a conditional write lost to a concurrent
	// mutation. Safe to retry after re-reading state.
	ErrConflict = errors.New("store: conflicting record exists")
	// ErrNotFound signals that no matching record exists.
	ErrNotFound = errors.New("store: record not found")
)
