// Package errors defines the ledger error taxonomy. Every failed operation
// surfaces one of these codes to the caller; nothing is swallowed or retried
// internally.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the failure reason.
type Code string

const (
	// Validation
	CodeInvalidRating Code = "INVALID_RATING"
	CodeInvalidName   Code = "INVALID_NAME"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeMissingProof  Code = "MISSING_PROOF"

	// Authorization
	CodeNotAuthorized Code = "NOT_AUTHORIZED"

	// State conflict
	CodeDuplicateName    Code = "DUPLICATE_NAME"
	CodeDuplicateURL     Code = "DUPLICATE_URL"
	CodeDuplicateReview  Code = "DUPLICATE_REVIEW"
	CodeDuplicateVote    Code = "DUPLICATE_VOTE"
	CodeAlreadyResponded Code = "ALREADY_RESPONDED"
	CodeSelfVote         Code = "SELF_VOTE"
	CodeInvalidState     Code = "INVALID_STATE"

	// Eligibility / timing
	CodeEditWindowExpired Code = "EDIT_WINDOW_EXPIRED"
	CodeRateLimited       Code = "RATE_LIMITED"

	// Economic
	CodeInsufficientStake Code = "INSUFFICIENT_STAKE"
	CodeInsufficientBond  Code = "INSUFFICIENT_BOND"

	// Availability
	CodeSystemPaused Code = "SYSTEM_PAUSED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInternal     Code = "INTERNAL"
)

// ServiceError carries a stable code, a human-readable message and the HTTP
// status the API layer should respond with.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors.Is match on the code, so sentinels below compare equal to
// wrapped instances carrying the same code.
func (e *ServiceError) Is(target error) bool {
	var se *ServiceError
	if errors.As(target, &se) {
		return se.Code == e.Code
	}
	return false
}

func newError(code Code, status int, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...), HTTPStatus: status}
}

// Sentinels for errors.Is checks in services and tests.
var (
	ErrInvalidRating     = newError(CodeInvalidRating, http.StatusBadRequest, "rating must be 1-5")
	ErrInvalidName       = newError(CodeInvalidName, http.StatusBadRequest, "invalid name length")
	ErrMissingProof      = newError(CodeMissingProof, http.StatusBadRequest, "scam reports require proof")
	ErrNotAuthorized     = newError(CodeNotAuthorized, http.StatusForbidden, "not authorized")
	ErrDuplicateName     = newError(CodeDuplicateName, http.StatusConflict, "name already taken")
	ErrDuplicateURL      = newError(CodeDuplicateURL, http.StatusConflict, "url already registered")
	ErrDuplicateReview   = newError(CodeDuplicateReview, http.StatusConflict, "already reviewed this app")
	ErrDuplicateVote     = newError(CodeDuplicateVote, http.StatusConflict, "already voted")
	ErrAlreadyResponded  = newError(CodeAlreadyResponded, http.StatusConflict, "response already recorded")
	ErrSelfVote          = newError(CodeSelfVote, http.StatusConflict, "cannot vote on own review")
	ErrInvalidState      = newError(CodeInvalidState, http.StatusConflict, "operation not allowed in current state")
	ErrEditWindowExpired = newError(CodeEditWindowExpired, http.StatusConflict, "edit window expired")
	ErrRateLimited       = newError(CodeRateLimited, http.StatusTooManyRequests, "daily review limit reached")
	ErrInsufficientStake = newError(CodeInsufficientStake, http.StatusPaymentRequired, "insufficient stake")
	ErrInsufficientBond  = newError(CodeInsufficientBond, http.StatusPaymentRequired, "insufficient dispute bond")
	ErrSystemPaused      = newError(CodeSystemPaused, http.StatusServiceUnavailable, "system is paused")
	ErrNotFound          = newError(CodeNotFound, http.StatusNotFound, "not found")
)

// Constructors for errors needing context in the message.

// InvalidInput reports a malformed request value.
func InvalidInput(format string, args ...interface{}) *ServiceError {
	return newError(CodeInvalidInput, http.StatusBadRequest, format, args...)
}

// NotAuthorized reports a caller lacking the required role or ownership.
func NotAuthorized(format string, args ...interface{}) *ServiceError {
	return newError(CodeNotAuthorized, http.StatusForbidden, format, args...)
}

// NotFound reports a missing entity.
func NotFound(format string, args ...interface{}) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, format, args...)
}

// InvalidState reports a transition attempted from an incompatible status.
func InvalidState(format string, args ...interface{}) *ServiceError {
	return newError(CodeInvalidState, http.StatusConflict, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(format string, args ...interface{}) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, format, args...)
}

// GetServiceError extracts a ServiceError from err, converting unknown errors
// to an internal error so the HTTP layer always has a status to write.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return Internal("%v", err)
}
