// Package errors provides structured error handling for the MCP client.
// It defines custom error types that map to JSON-RPC error codes and carry
// enough context for callers to pick a retry policy programmatically.
package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category represents the type/category of an error for classification and handling
type Category string

const (
	// CategoryConfig covers bad or missing parameters, unresolvable config
	// files and unknown server names. Never retried.
	CategoryConfig Category = "config"

	// CategoryTransport covers failures to open or maintain the underlying
	// channel. Callers may retry by re-initializing the session.
	CategoryTransport Category = "transport"

	// CategoryTimeout covers handshakes or calls that exceeded their budget.
	// Distinct from transport failures so callers can apply a different
	// retry policy.
	CategoryTimeout Category = "timeout"

	// CategoryAPI covers requests the server received but rejected. The
	// error carries the server-reported code.
	CategoryAPI Category = "api"

	// CategoryData covers malformed config or response payloads. Never
	// retried.
	CategoryData Category = "data"

	// CategoryState covers operations attempted outside the Ready state.
	// These are programmer errors and are surfaced synchronously.
	CategoryState Category = "state"

	CategoryNotFound  Category = "not_found"
	CategoryCancelled Category = "cancelled"
	CategoryInternal  Category = "internal"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context provides additional context about where and when an error occurred
type Context struct {
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method,omitempty"`
	Server    string    `json:"server,omitempty"`
	Endpoint  string    `json:"endpoint,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component,omitempty"`
	Operation string    `json:"operation,omitempty"`
}

// MCPError defines the interface for all errors produced by this library
type MCPError interface {
	error

	// Code returns the JSON-RPC error code
	Code() int

	// Message returns a human-readable error message
	Message() string

	// Details returns detailed technical description for debugging
	Details() string

	// Category returns the error category for classification
	Category() Category

	// Severity returns the error severity level
	Severity() Severity

	// Context returns the error context information
	Context() *Context

	// WithContext returns a new error with the provided context
	WithContext(ctx *Context) MCPError

	// WithDetail returns a new error with additional detail
	WithDetail(detail string) MCPError

	// Unwrap returns the underlying error for error chain traversal
	Unwrap() error

	// ToJSON returns the error as a JSON-serializable map
	ToJSON() map[string]interface{}
}

// baseError implements the MCPError interface
type baseError struct {
	code     int
	message  string
	details  string
	category Category
	severity Severity
	context  *Context
	cause    error
}

// Error implements the error interface
func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

// Code returns the JSON-RPC error code
func (e *baseError) Code() int {
	return e.code
}

// Message returns the human-readable error message
func (e *baseError) Message() string {
	return e.message
}

// Details returns detailed technical description
func (e *baseError) Details() string {
	return e.details
}

// Category returns the error category
func (e *baseError) Category() Category {
	return e.category
}

// Severity returns the error severity
func (e *baseError) Severity() Severity {
	return e.severity
}

// Context returns the error context
func (e *baseError) Context() *Context {
	return e.context
}

// WithContext returns a new error with the provided context
func (e *baseError) WithContext(ctx *Context) MCPError {
	newErr := *e
	newErr.context = ctx
	return &newErr
}

// WithDetail returns a new error with additional detail
func (e *baseError) WithDetail(detail string) MCPError {
	newErr := *e
	if newErr.details != "" {
		newErr.details = fmt.Sprintf("%s; %s", newErr.details, detail)
	} else {
		newErr.details = detail
	}
	return &newErr
}

// Unwrap returns the underlying error
func (e *baseError) Unwrap() error {
	return e.cause
}

// ToJSON returns the error as a JSON-serializable map
func (e *baseError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.code,
		"message":  e.message,
		"category": string(e.category),
		"severity": string(e.severity),
	}

	if e.details != "" {
		result["details"] = e.details
	}

	if e.context != nil {
		result["context"] = e.context
	}

	if e.cause != nil {
		result["cause"] = e.cause.Error()
	}

	return result
}

// MarshalJSON implements json.Marshaler for baseError
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// NewError creates a new MCPError with the specified parameters
func NewError(code int, message string, category Category, severity Severity) MCPError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// NewErrorf creates a new MCPError with formatted message
func NewErrorf(code int, category Category, severity Severity, format string, args ...interface{}) MCPError {
	return &baseError{
		code:     code,
		message:  fmt.Sprintf(format, args...),
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// WrapError wraps an existing error as an MCPError
func WrapError(err error, code int, message string, category Category, severity Severity) MCPError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    err,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// AsMCPError extracts an MCPError from anywhere in an error chain
func AsMCPError(err error) (MCPError, bool) {
	for err != nil {
		if mcpErr, ok := err.(MCPError); ok {
			return mcpErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsMCPError checks if an error is an MCPError
func IsMCPError(err error) bool {
	_, ok := AsMCPError(err)
	return ok
}

// IsCategory checks if an error is of a specific category
func IsCategory(err error, category Category) bool {
	if mcpErr, ok := AsMCPError(err); ok {
		return mcpErr.Category() == category
	}
	return false
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code int) bool {
	if mcpErr, ok := AsMCPError(err); ok {
		return mcpErr.Code() == code
	}
	return false
}
