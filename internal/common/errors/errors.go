// Package errors provides the failure taxonomy used at the command facade boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvocationFailed      ErrorCode = "INVOCATION_FAILED"
	ErrCodeMalformedResponse     ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeCatalogLookupFailed   ErrorCode = "CATALOG_LOOKUP_FAILED"
	ErrCodeRequestEncodingFailed ErrorCode = "REQUEST_ENCODING_FAILED"
	ErrCodeUnknownOperation      ErrorCode = "UNKNOWN_OPERATION"
	ErrCodeCollaboratorPanic     ErrorCode = "COLLABORATOR_PANIC"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the terminal failure of one facade operation. Cause keeps the
// collaborator's original error reachable through errors.Is / errors.As.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Operation string                 `json:"operation"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s] %s: %s: %s", e.Code, e.Operation, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s] %s: %s", e.Code, e.Operation, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, op, message string, cause error) *StandardError {
	se := &StandardError{
		Code:      code,
		Operation: op,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

// NewInvocationFailedError wraps a rejection returned by the collaborator.
func NewInvocationFailedError(op string, err error) *StandardError {
	return newError(ErrCodeInvocationFailed, op, "collaborator rejected the call", err)
}

// NewMalformedResponseError reports a response that does not match the expected shape.
func NewMalformedResponseError(op string, err error) *StandardError {
	return newError(ErrCodeMalformedResponse, op, "unexpected response shape", err)
}

// NewCatalogLookupError reports a request identifier missing from the catalog.
func NewCatalogLookupError(op string, err error) *StandardError {
	return newError(ErrCodeCatalogLookupFailed, op, "identifier not in catalog", err)
}

// NewRequestEncodingError reports a request that could not be serialized.
func NewRequestEncodingError(op string, err error) *StandardError {
	return newError(ErrCodeRequestEncodingFailed, op, "request encoding failed", err)
}

// NewUnknownOperationError reports an operation the collaborator does not expose.
func NewUnknownOperationError(op string, err error) *StandardError {
	return newError(ErrCodeUnknownOperation, op, "operation not supported by collaborator", err)
}

// NewCollaboratorPanicError converts a recovered panic into a failure.
func NewCollaboratorPanicError(op string, recovered interface{}) *StandardError {
	se := newError(ErrCodeCollaboratorPanic, op, "collaborator panicked", fmt.Errorf("panic: %v", recovered))
	se.Metadata = map[string]interface{}{"recovered": fmt.Sprint(recovered)}
	return se
}

// Normalize returns err as a *StandardError, wrapping foreign errors as INTERNAL_ERROR.
func Normalize(op string, err error) *StandardError {
	if err == nil {
		return nil
	}
	var se *StandardError
	if stderrors.As(err, &se) {
		if se.Operation == "" {
			se.Operation = op
		}
		return se
	}
	return newError(ErrCodeInternal, op, "unexpected error", err)
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvocationFailed, ErrCodeUnknownOperation, ErrCodeCollaboratorPanic:
		return "COLLABORATOR"
	case ErrCodeMalformedResponse:
		return "RESPONSE"
	case ErrCodeCatalogLookupFailed, ErrCodeRequestEncodingFailed:
		return "REQUEST"
	}
	return "INTERNAL"
}
