// Package syncerr defines the error taxonomy shared by the change queue,
// the sync service and the sync providers.
package syncerr

import (
	"context"
	"errors"
	"fmt"
)

// Kind классифицирует ошибку синхронизации
type Kind string

const (
	KindNotConfigured        Kind = "not_configured"
	KindConnectionFailed     Kind = "connection_failed"
	KindAuthenticationFailed Kind = "authentication_failed"
	KindServerError          Kind = "server_error"
	KindConflict             Kind = "conflict"
	KindQueueFull            Kind = "queue_full"
	KindNetwork              Kind = "network_error"
	KindInvalidData          Kind = "invalid_data"
)

// Sentinel errors, one per kind. Use errors.Is against these.
var (
	// ErrNotConfigured indicates a sync attempt without server URL or credentials
	ErrNotConfigured = errors.New("sync not configured")

	// ErrConnectionFailed indicates a transport-level failure
	ErrConnectionFailed = errors.New("connection failed")

	// ErrAuthenticationFailed indicates that the remote rejected the credential
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrServerError indicates that the remote rejected the request
	ErrServerError = errors.New("server error")

	// ErrConflict indicates a version mismatch that requires resolution
	ErrConflict = errors.New("conflict detected")

	// ErrQueueFull indicates that the pending change queue is at capacity
	ErrQueueFull = errors.New("queue is full")

	// ErrNetwork indicates a timeout or transient I/O failure
	ErrNetwork = errors.New("network error")

	// ErrInvalidData indicates a malformed change or payload
	ErrInvalidData = errors.New("invalid data")
)

var sentinels = map[Kind]error{
	KindNotConfigured:        ErrNotConfigured,
	KindConnectionFailed:     ErrConnectionFailed,
	KindAuthenticationFailed: ErrAuthenticationFailed,
	KindServerError:          ErrServerError,
	KindConflict:             ErrConflict,
	KindQueueFull:            ErrQueueFull,
	KindNetwork:              ErrNetwork,
	KindInvalidData:          ErrInvalidData,
}

// Error is a classified sync error. Op names the operation that failed
// ("push", "pull", "authenticate", "enqueue", ...).
type Error struct {
	Err  error
	Kind Kind
	Op   string
}

// New creates a classified error. err may be nil.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates a classified error with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return New(kind, op, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	msg := sentinels[e.Kind].Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind, so
// errors.Is(err, ErrQueueFull) works for wrapped *Error values.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the kind of err. Bare sentinels are recognised too.
// Context deadline and cancellation map to KindNetwork.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}

	var syncErr *Error
	if errors.As(err, &syncErr) {
		return syncErr.Kind, true
	}

	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork, true
	}

	return "", false
}

// IsRetryable reports whether a later attempt may succeed without user action
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindConnectionFailed, KindNetwork, KindServerError:
		return true
	default:
		return false
	}
}

// Classify returns err as a *Error. Unclassified errors are assigned
// fallback; context errors become KindNetwork.
func Classify(op string, err error, fallback Kind) error {
	if err == nil {
		return nil
	}

	var syncErr *Error
	if errors.As(err, &syncErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return New(KindNetwork, op, err)
	}

	if kind, ok := KindOf(err); ok {
		if err == sentinels[kind] {
			return New(kind, op, nil)
		}
		return New(kind, op, err)
	}

	return New(fallback, op, err)
}
