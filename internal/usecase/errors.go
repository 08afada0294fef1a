package usecase

import "errors"

// Domain error codes. These are expected business outcomes, resolved
// locally and never retried.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeConflict          = "CONFLICT"
	CodeNotFound          = "NOT_FOUND"
	CodeNotAuthorized     = "NOT_AUTHORIZED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAlreadyRefunded   = "ALREADY_REFUNDED"
)

// Technical error codes. Possibly transient; the caller may retry the
// whole operation.
const (
	CodeExternalService = "EXTERNAL_SERVICE"
	CodeDatabase        = "DATABASE_ERROR"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Cause   error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Cause
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func ErrValidation(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}

// ErrConflict covers the expected collisions: booking overlap, a second
// active deal or proposal for the same lead.
func ErrConflict(msg string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: msg}
}

func ErrNotFound(msg string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: msg}
}

func ErrNotAuthorized(msg string) *DomainError {
	return &DomainError{Code: CodeNotAuthorized, Message: msg}
}

func ErrInvalidTransition(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidTransition, Message: msg}
}

func ErrAlreadyRefunded(msg string) *DomainError {
	return &DomainError{Code: CodeAlreadyRefunded, Message: msg}
}

func ErrExternal(msg string, cause error) *TechnicalError {
	return &TechnicalError{Code: CodeExternalService, Message: msg, Cause: cause}
}

func ErrDatabase(msg string, cause error) *TechnicalError {
	return &TechnicalError{Code: CodeDatabase, Message: msg, Cause: cause}
}

// ErrorCode extracts the taxonomy code, empty for untyped errors.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
