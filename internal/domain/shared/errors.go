// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Conflict / capacity errors
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// Consistency errors
	ErrPartialCommit          = errors.New("partial commit: mirrored write failed after primary write")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "mentor", "lifecycle"
	Op      string // Operation that failed, e.g., "CreateRequest", "Respond"
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

// Learner domain errors
var (
	ErrLearnerNotFound       = NewDomainError("learner", "Find", ErrNotFound, "learner profile not found")
	ErrLearnerAlreadyExists  = NewDomainError("learner", "Create", ErrAlreadyExists, "learner profile already exists")
	ErrProfileIncomplete     = NewDomainError("learner", "CheckProfile", ErrInvalidState, "learner profile is incomplete")
	ErrFirstTermLearner      = NewDomainError("learner", "CheckEligibility", ErrInvalidState, "first-term learners cannot request peer mentors")
	ErrFourthYearRequester   = NewDomainError("learner", "CheckEligibility", ErrInvalidState, "fourth-year learners cannot request peer mentors")
	ErrBranchMismatch        = NewDomainError("learner", "CheckEligibility", ErrConflict, "learners are in different branches")
	ErrDuplicateSubject      = NewDomainError("learner", "AddStrongSubject", ErrConflict, "subject already listed as strong")
	ErrSubjectNotStrong      = NewDomainError("learner", "CheckEligibility", ErrConflict, "target does not teach this subject")
	ErrNotAcceptingMentees   = NewDomainError("learner", "CheckCapacity", ErrInvalidState, "mentor is not accepting new mentees")
	ErrMenteeCapacityReached = NewDomainError("learner", "CheckCapacity", ErrCapacityExceeded, "mentor has reached the mentee cap")
)

// Request lifecycle errors
var (
	ErrRequestNotFound   = NewDomainError("lifecycle", "FindRequest", ErrNotFound, "request not found")
	ErrDuplicateRequest  = NewDomainError("lifecycle", "CreateRequest", ErrConflict, "a pending request for this mentor and subject already exists")
	ErrAlreadyResponded  = NewDomainError("lifecycle", "Respond", ErrConflict, "request has already been responded to")
	ErrAlreadyMentored   = NewDomainError("lifecycle", "CreateRequest", ErrConflict, "already have an active mentor for this subject")
	ErrSelfRequest       = NewDomainError("lifecycle", "CreateRequest", ErrInvalidInput, "cannot request yourself as a mentor")
	ErrRequestExpired    = NewDomainError("lifecycle", "Respond", ErrExpired, "request has expired")
	ErrEdgeNotFound      = NewDomainError("lifecycle", "FindEdge", ErrNotFound, "relationship edge not found")
	ErrEdgeInactive      = NewDomainError("lifecycle", "CheckEdge", ErrInvalidState, "relationship edge is not active")
	ErrMirrorWriteFailed = NewDomainError("lifecycle", "MirrorWrite", ErrPartialCommit, "counterpart ledger write failed after primary commit")
	ErrRevisionConflict  = NewDomainError("lifecycle", "Save", ErrConcurrentModification, "ledger was modified concurrently")
)

// Rating errors
var (
	ErrAlreadyRated    = NewDomainError("rating", "Rate", ErrConflict, "edge has already been rated")
	ErrRatingTooEarly  = NewDomainError("rating", "Rate", ErrInvalidState, "relationship is younger than the rating threshold")
	ErrInvalidScore    = NewDomainError("rating", "Validate", ErrValueOutOfRange, "score must be between 1 and 5")
	ErrFeedbackTooLong = NewDomainError("rating", "Validate", ErrValueOutOfRange, "feedback exceeds 500 characters")
)

// Mentor domain errors
var (
	ErrMentorNotFound      = NewDomainError("mentor", "Find", ErrNotFound, "mentor profile not found")
	ErrMentorAlreadyExists = NewDomainError("mentor", "Create", ErrAlreadyExists, "mentor profile already exists")
	ErrMentorInactive      = NewDomainError("mentor", "CheckStatus", ErrInvalidState, "mentor profile is not active")
	ErrMentorNotOwner      = NewDomainError("mentor", "Respond", ErrInvalidState, "account does not own the targeted mentor profile")
)

// External service errors
var (
	ErrCatalogUnavailable     = NewDomainError("catalog", "Request", ErrServiceUnavailable, "subject catalog is unavailable")
	ErrCatalogRateLimited     = NewDomainError("catalog", "Request", ErrRateLimited, "subject catalog rate limit exceeded")
	ErrSubjectNotFound        = NewDomainError("catalog", "Find", ErrNotFound, "subject not found in catalog")
	ErrCatalogInvalidResponse = NewDomainError("catalog", "Parse", ErrInvalidFormat, "invalid response from subject catalog")
	ErrNotifierFailed         = NewDomainError("notifier", "Emit", ErrExternalService, "notification emitter request failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflict error (duplicate request,
// already responded, already rated, duplicate mentor-for-subject).
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsInvalidState checks if the error reports a business-state violation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrExpired)
}

// IsCapacityExceeded checks if the error is a capacity error.
func IsCapacityExceeded(err error) bool {
	return errors.Is(err, ErrCapacityExceeded)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsPartialCommit checks if the error reports an asymmetric ledger write.
// These are never silently swallowed: they are logged, surfaced, and picked
// up by the reconciliation job.
func IsPartialCommit(err error) bool {
	return errors.Is(err, ErrPartialCommit)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
