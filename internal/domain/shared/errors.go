// Package shared contains common domain types, errors and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// ErrNotFound is returned when a referenced user, film, review or relation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for arguments that can never succeed (e.g. a non-positive limit).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned when a unique catalog field is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnavailable is returned when the store is unreachable or a transaction was aborted.
	// Nothing is partially applied when it is returned.
	ErrUnavailable = errors.New("store unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "social", "feedback", "popularity"
	Op      string // Operation that failed, e.g., "RemoveFriend"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NotFoundf builds a NotFound error whose message names the missing entity.
func NotFoundf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidArgumentf builds an InvalidArgument error naming the offending value.
func InvalidArgumentf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Unavailable wraps a store failure.
func Unavailable(domain, op string, err error) *DomainError {
	return WrapError(domain, op, ErrUnavailable, "store unavailable", err)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidArgument checks if the error is an "invalid argument" error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsUnavailable checks if the error signals an unreachable store.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsRetryable checks if the operation can be retried.
// Only idempotent callers may act on it.
func IsRetryable(err error) bool {
	return IsUnavailable(err)
}

// StoreError passes classified errors through and treats everything else coming
// out of a store as unavailability. A nil err stays nil.
func StoreError(domain, op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsInvalidArgument(err) || IsAlreadyExists(err) || IsUnavailable(err) {
		return err
	}
	return Unavailable(domain, op, err)
}
