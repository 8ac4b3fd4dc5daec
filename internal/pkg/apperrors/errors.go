package apperrors

import "errors"

// Taxonomy sentinels. Every error returned by a service wraps one of these.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrPersistence      = errors.New("persistence failure")
	ErrPermissionDenied = errors.New("permission denied")
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
)

// ErrNotificationFailed never leaves the notification layer as a failure;
// it only shows up inside a delivery result.
var ErrNotificationFailed = errors.New("notification failed")

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
)

// Domain errors, each wrapping a taxonomy sentinel
var (
	ErrUserNotFound         = NewCustomError(ErrResourceNotFound, "user not found")
	ErrBorrowRecordNotFound = NewCustomError(ErrResourceNotFound, "borrow record not found")
	ErrBookNotFound         = NewCustomError(ErrResourceNotFound, "book not found")
	ErrLoanNotFound         = NewCustomError(ErrResourceNotFound, "loan not found")
	ErrPostNotFound         = NewCustomError(ErrResourceNotFound, "forum post not found")
	ErrCommentNotFound      = NewCustomError(ErrResourceNotFound, "forum comment not found")
	ErrUsernameTaken        = NewCustomError(ErrConflict, "username already exists")
	ErrEmailTaken           = NewCustomError(ErrConflict, "email already exists")
	ErrBookUnavailable      = NewCustomError(ErrConflict, "book is not available")
	ErrInvalidDate          = NewCustomError(ErrValidationFailed, "invalid date format")
	ErrUnsupportedPhoto     = NewCustomError(ErrValidationFailed, "unsupported photo type")
)

// NewValidationError creates a new custom error for malformed input
func NewValidationError(message string) error {
	return &CustomError{Err: ErrValidationFailed, Message: message}
}

// NewPersistenceError wraps a storage failure. The cause stays reachable
// through errors.Is/As while the message remains generic.
func NewPersistenceError(message string, cause error) error {
	return &CustomError{Err: errors.Join(ErrPersistence, cause), Message: message}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{Err: ErrResourceNotFound, Message: message}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
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
	return &CustomError{Err: err, Message: message}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
