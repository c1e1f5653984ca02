package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients. Codes map 1:1 to HTTP statuses in
// StatusFor; handlers never invent their own status codes.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeJobVectorsMissing  = "JOB_VECTORS_MISSING"
	CodeUserVectorsMissing = "USER_VECTORS_MISSING"
	CodeJobNotFound        = "JOB_NOT_FOUND"
	CodeWeights            = "UNPROCESSABLE_WEIGHTS"
	CodeStoreFailure       = "STORE_FAILURE"
	CodeLLMFailure         = "LLM_FAILURE"
	CodeEmbeddingFailure   = "EMBEDDING_FAILURE"
	CodeInternal           = "INTERNAL"
)

// Error is the domain error carried from services up to the HTTP layer.
type Error struct {
	Code    string
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail attaches a detail key to the error and returns it for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewError creates a domain error with the given code.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a domain error wrapping an underlying cause.
func WrapError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// AsError extracts a *Error from an error chain, or wraps unknown errors
// as INTERNAL so the HTTP layer always has a code to report.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Code: CodeInternal, Message: "internal error", cause: err}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeJobVectorsMissing, CodeUserVectorsMissing, CodeJobNotFound:
		return http.StatusNotFound
	case CodeWeights:
		return http.StatusUnprocessableEntity
	case CodeStoreFailure, CodeLLMFailure, CodeEmbeddingFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
