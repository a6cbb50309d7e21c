package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnbalancedEntries indicates an entries plan whose debits and credits do not
// sum to the same amount. This is a programming-contract violation by the caller,
// never a transient condition.
var ErrUnbalancedEntries = errors.New("entries do not balance")

// ErrInsufficientFunds indicates a posting that would drive an account balance
// negative when the account does not permit overdraft. Terminal business failure;
// a replay with the same idempotency key returns the same failure.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidTransition indicates an attempt to move an intent out of a terminal
// state to a different outcome. This signals a bug upstream.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConflict indicates the resource is in a state that conflicts with the request.
var ErrConflict = errors.New("resource state conflict")

// AppError wraps lower-level failures (store connectivity, query errors) with an
// HTTP-ish status code and a message. Errors carrying code 500 are considered
// transient by callers and safe to retry with the same idempotency key.
type AppError struct {
	Code    int
	Message string
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

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// IsTransient reports whether the error is a store-level failure that may
// succeed on retry. Business and validation failures are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnbalancedEntries) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code >= 500
	}
	return true
}
