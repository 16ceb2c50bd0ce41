package storage

import "errors"

// Common client storage errors
var (
	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrConfigNotFound indicates that no sync configuration was saved yet
	ErrConfigNotFound = errors.New("sync config not found")

	// ErrSessionNotFound indicates that a session is not in the history
	ErrSessionNotFound = errors.New("sync session not found")
)
