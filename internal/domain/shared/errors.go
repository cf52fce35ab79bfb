package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// CodeInvalidState is the error code shared by every lifecycle violation
const CodeInvalidState = "INVALID_STATE"

// InvalidStateError is returned when a pair of lifecycle values is not a legal
// combination, e.g. a purchase order step that does not belong to its status.
// Kind names the pair being validated ("status/step" or "type/subtype").
type InvalidStateError struct {
	Kind   string `json:"kind"`
	First  string `json:"first"`
	Second string `json:"second"`
}

// NewInvalidStateError creates an InvalidStateError for the given pair
func NewInvalidStateError(kind, first, second string) *InvalidStateError {
	return &InvalidStateError{Kind: kind, First: first, Second: second}
}

// Error implements the error interface
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid %s combination: %q / %q", e.Kind, e.First, e.Second)
}

// Code returns the domain error code
func (e *InvalidStateError) Code() string {
	return CodeInvalidState
}

// AsDomainError converts the error into a DomainError for transport layers
func (e *InvalidStateError) AsDomainError() *DomainError {
	return NewDomainError(CodeInvalidState, e.Error())
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrForbidden    = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)
