package storage

import "errors"

// Common storage errors
var (
	// ErrConflictNotFound indicates that conflict was not found in storage
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrConflictResolved indicates that conflict was already resolved
	ErrConflictResolved = errors.New("conflict already resolved")

	// ErrDeviceNotFound indicates that device was not found
	ErrDeviceNotFound = errors.New("device not found")
)
