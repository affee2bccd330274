// Package apperrors holds the request-level error taxonomy shared by
// services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeJobNotFound   ErrorCode = "JOB_NOT_FOUND"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError aborts a whole request. Per-file and per-item failures are never
// reported through it.
type AppError struct {
	Code    ErrorCode
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

func NewJobNotFoundError(jobID string) *AppError {
	return &AppError{
		Code:    CodeJobNotFound,
		Message: fmt.Sprintf("Job not found: %s", jobID),
		Status:  http.StatusNotFound,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternalError, Message: message, Status: http.StatusInternalServerError, Err: err}
}

func NewUnavailableError(message string, err error) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message, Status: http.StatusServiceUnavailable, Err: err}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
