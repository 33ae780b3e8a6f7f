package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// User errors. Each one unwraps to its category sentinel so callers can match
// either the specific error or the broader class with errors.Is.
var (
	ErrUserNotFound          error = NewCustomError(ErrResourceNotFound, "user not found")
	ErrUsernameAlreadyExists error = NewCustomError(ErrConflict, "username already exists")
	ErrEmailAlreadyExists    error = NewCustomError(ErrConflict, "email already exists")
)

// Role errors
var (
	ErrInvalidRole error = errors.New("invalid role for this operation")
	ErrNotStudent  error = NewCustomError(ErrInvalidRole, "user is not a student")
	ErrNotTeacher  error = NewCustomError(ErrInvalidRole, "user is not a teacher")
	ErrUnknownRole error = NewCustomError(ErrValidationFailed, "role must be one of ADMIN, TEACHER, STUDENT")
)

// NewValidationError creates a new custom error for failed input validation with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}
