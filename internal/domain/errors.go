package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeTransient         = "TRANSIENT_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInvalidOperation  = "INVALID_OPERATION"
	ErrCodeUnknownActionType = "UNKNOWN_ACTION_TYPE"
)

// Validation errors
var (
	ErrInvalidContentType   = NewDomainError(ErrCodeValidation, "invalid content type")
	ErrInvalidActionStatus  = NewDomainError(ErrCodeValidation, "invalid action status")
	ErrInvalidRating        = NewDomainError(ErrCodeValidation, "rating must be between 1 and 5")
	ErrEmptyContent         = NewDomainError(ErrCodeValidation, "content is required")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrWrongDimensions      = NewDomainError(ErrCodeValidation, "embedding has wrong dimensions")
)

// Not found errors
var (
	ErrDomainNotFound     = NewDomainError(ErrCodeNotFound, "domain not found")
	ErrKnowledgeNotFound  = NewDomainError(ErrCodeNotFound, "knowledge item not found")
	ErrRoutingLogNotFound = NewDomainError(ErrCodeNotFound, "routing log not found")
	ErrActionNotFound     = NewDomainError(ErrCodeNotFound, "action not found")
	ErrOwnerNotFound      = NewDomainError(ErrCodeNotFound, "owner not found")
	ErrAPIKeyNotFound     = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Already exists errors
var (
	ErrDomainAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "domain with this name already exists")
	ErrOwnerAlreadyExists  = NewDomainError(ErrCodeAlreadyExists, "owner already exists")
	ErrAPIKeyAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// Operation errors
var (
	ErrUnknownActionType = NewDomainError(ErrCodeUnknownActionType, "unknown action type")
	ErrActionNotPending  = NewDomainError(ErrCodeInvalidOperation, "action is no longer pending")
	ErrActionTerminal    = NewDomainError(ErrCodeInvalidOperation, "action has reached a terminal state")
)

// Transient errors
var (
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeTransient, "embedding service unavailable")
)
