package domain

import "errors"

// Error classes for the booking workflows. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so handlers can classify with errors.Is while
// the message keeps the human-readable reason.
var (
	// ErrValidation rejects a malformed request before any remote call.
	ErrValidation = errors.New("invalid booking request")

	// ErrClientRequest means the flight service rejected the request itself
	// (nonexistent seat, seat already booked). Never trips the breaker.
	ErrClientRequest = errors.New("rejected by flight service")

	// ErrDependency means the flight service is unavailable or failing.
	ErrDependency = errors.New("flight service unavailable")

	// ErrPersistence means remote state changed but the local write failed.
	ErrPersistence = errors.New("failed to save booking")

	ErrNotFound = errors.New("Invalid booking ID")

	ErrPolicyViolation = errors.New("can't cancel flight after 24 hrs from booking")
)
