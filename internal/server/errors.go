// Package server provides the HTTP REST API for the resume builder.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Machine-readable reason codes attached to error responses. Clients branch
// on these, never on message text.
const (
	ReasonInsufficientCoins  = "insufficient_coins"
	ReasonServiceUnavailable = "service_unavailable"
	ReasonValidation         = "validation_error"
	ReasonUnauthorized       = "unauthorized"
	ReasonNotFound           = "not_found"
	ReasonRateLimited        = "rate_limit_exceeded"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrResumeNotFound indicates the resume does not exist or belongs to
// another user. The two cases are deliberately indistinguishable.
type ErrResumeNotFound struct {
	ResumeID uuid.UUID
}

func (e *ErrResumeNotFound) Error() string {
	return fmt.Sprintf("resume not found: %s", e.ResumeID)
}

// ErrInsufficientCoins indicates a deduction was refused because the
// balance does not cover the feature cost.
type ErrInsufficientCoins struct {
	Required  int
	Available int
	ResetAt   time.Time
}

func (e *ErrInsufficientCoins) Error() string {
	return fmt.Sprintf("Insufficient coins. Required: %d, Available: %d", e.Required, e.Available)
}

// ErrServiceUnavailable indicates a transient infrastructure failure:
// upstream LLM trouble, database trouble, or a fetch that could not
// complete. Retryable; never conflated with coin exhaustion.
type ErrServiceUnavailable struct {
	Cause error
}

func (e *ErrServiceUnavailable) Error() string {
	return "AI service temporarily unavailable, please try again"
}

func (e *ErrServiceUnavailable) Unwrap() error { return e.Cause }

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrUserNotFound, *ErrResumeNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrInsufficientCoins:
		return http.StatusForbidden
	case *ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Reason returns the machine-readable reason code for an error.
func Reason(err error) string {
	switch err.(type) {
	case *ErrInsufficientCoins:
		return ReasonInsufficientCoins
	case *ErrServiceUnavailable:
		return ReasonServiceUnavailable
	case *ErrValidation:
		return ReasonValidation
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return ReasonUnauthorized
	case *ErrUserNotFound, *ErrResumeNotFound:
		return ReasonNotFound
	default:
		return ""
	}
}
