package errors

import (
	"errors"
)

// Sentinel errors for the travel agent taxonomy.
var (
	// ErrInvalidInput - malformed request or tool arguments (422 on the HTTP surface)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - unknown tool, session or model
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied - provider rejected our credentials
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConflict - a second daemon holds the instance lock
	ErrConflict = errors.New("conflict")

	// ErrTransient - timeouts, rate limits, full queues
	ErrTransient = errors.New("transient error")

	// ErrUnavailable - an external provider is not configured or not reachable
	ErrUnavailable = errors.New("unavailable")

	// ErrInvalidModelOutput - model returned a reply we cannot interpret
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrInternal - everything else
	ErrInternal = errors.New("internal error")
)
