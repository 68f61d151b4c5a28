// Package apperrors defines the error types that callers of controllers need
// to tell apart, and the HTTP status each one maps to.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal_error"
)

type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// PublicMessage is what the caller sees. Internal errors never expose detail.
func (e *AppError) PublicMessage() string {
	if e.Type == ErrorTypeInternal {
		return e.Message
	}
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func newError(errType ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

func NewConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, details)
}

func NewUnauthorizedError(message string, details ...string) *AppError {
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details)
}

func NewForbiddenError(message string, details ...string) *AppError {
	return newError(ErrorTypeForbidden, http.StatusForbidden, message, details)
}

func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// Wrap keeps the original error reachable through errors.Is/As.
func (e *AppError) Wrap(cause error) *AppError {
	e.cause = cause
	return e
}

func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict) || errors.Is(err, gorm.ErrDuplicatedKey)
}

func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// FromDB translates storage errors that carry domain meaning. GORM is opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func FromDB(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case GetAppError(err) != nil:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NewNotFoundError(resource + " not found").Wrap(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return NewConflictError(resource + " already exists").Wrap(err)
	}
	return err
}

// StatusCode maps any error to an HTTP status; unknown errors are 500.
func StatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
