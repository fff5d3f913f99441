package errors

import (
	"context"
	"fmt"
	"time"
)

// ConfigError creates an error for bad or missing connection parameters.
func ConfigError(message string) MCPError {
	return NewError(CodeConfigInvalid, message, CategoryConfig, SeverityError)
}

// ConfigErrorf creates a configuration error with a formatted message.
func ConfigErrorf(format string, args ...interface{}) MCPError {
	return NewErrorf(CodeConfigInvalid, CategoryConfig, SeverityError, format, args...)
}

// ConfigFileNotFound creates an error for a config file that could not be
// located, either at an explicit path or anywhere on the search path.
func ConfigFileNotFound(path string) MCPError {
	message := "no config file found on search path"
	if path != "" {
		message = fmt.Sprintf("config file not found: %s", path)
	}
	return NewError(CodeConfigFileNotFound, message, CategoryConfig, SeverityError)
}

// ServerNameUnknown creates an error for a server name absent from the
// config file's servers mapping.
func ServerNameUnknown(name string) MCPError {
	return NewErrorf(CodeServerNameUnknown, CategoryConfig, SeverityError,
		"server %q not defined in config", name)
}

// ServerAlreadyExists creates an error for a duplicate registry entry.
// The registry never overwrites silently.
func ServerAlreadyExists(name string) MCPError {
	return NewErrorf(CodeServerAlreadyExists, CategoryConfig, SeverityError,
		"server %q already connected", name)
}

// ServerNotConnected creates the not-found error for server-scoped registry
// operations. Distinct from any server-side error.
func ServerNotConnected(name string) MCPError {
	return NewErrorf(CodeServerNotConnected, CategoryNotFound, SeverityError,
		"no server connected under name %q", name)
}

// ConnectionFailed creates an error for a channel that could not be opened
// or maintained.
func ConnectionFailed(transport, endpoint string, cause error) MCPError {
	message := fmt.Sprintf("failed to connect via %s", transport)
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}
	return WrapError(cause, CodeConnectionFailed, message, CategoryTransport, SeverityError).
		WithContext(&Context{
			Timestamp: time.Now(),
			Endpoint:  endpoint,
			Component: transport,
		})
}

// ConnectionClosed creates an error for a channel lost mid-operation.
func ConnectionClosed(transport string, cause error) MCPError {
	message := fmt.Sprintf("%s connection closed", transport)
	return WrapError(cause, CodeConnectionClosed, message, CategoryTransport, SeverityError)
}

// Timeout creates an error for a handshake or call that exceeded its budget.
func Timeout(operation string, budget time.Duration) MCPError {
	return NewErrorf(CodeTimeout, CategoryTimeout, SeverityError,
		"%s timed out after %s", operation, budget)
}

// Cancelled creates an error for an operation cancelled by the caller.
func Cancelled(operation string, cause error) MCPError {
	return WrapError(cause, CodeCancelled,
		fmt.Sprintf("%s cancelled", operation), CategoryCancelled, SeverityWarning)
}

// FromContextError classifies a context error from an in-flight operation
// as either a timeout or a cancellation.
func FromContextError(operation string, budget time.Duration, err error) MCPError {
	if err == context.DeadlineExceeded {
		return Timeout(operation, budget)
	}
	return Cancelled(operation, err)
}

// APIError creates an error for a request the server received but rejected.
// code is the server-reported JSON-RPC error code.
func APIError(code int, message string, method string) MCPError {
	return NewError(code, message, CategoryAPI, SeverityError).
		WithContext(&Context{
			Timestamp: time.Now(),
			Method:    method,
		})
}

// DataError creates an error for a malformed config or response payload.
func DataError(message string, cause error) MCPError {
	return WrapError(cause, CodeDataInvalid, message, CategoryData, SeverityError)
}

// DataErrorf creates a data error with a formatted message.
func DataErrorf(format string, args ...interface{}) MCPError {
	return NewErrorf(CodeDataInvalid, CategoryData, SeverityError, format, args...)
}

// InvalidState creates the error for an operation attempted while the
// session is not Ready. The message names the current state.
func InvalidState(operation, state string) MCPError {
	return NewErrorf(CodeInvalidState, CategoryState, SeverityError,
		"cannot %s: session is %s", operation, state)
}

// Predicates for caller-side retry policy.

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool { return IsCategory(err, CategoryConfig) }

// IsConnection reports whether err is a transport-level connection error.
func IsConnection(err error) bool { return IsCategory(err, CategoryTransport) }

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return IsCategory(err, CategoryTimeout) }

// IsAPI reports whether err is a server-reported failure.
func IsAPI(err error) bool { return IsCategory(err, CategoryAPI) }

// IsData reports whether err is a malformed-payload error.
func IsData(err error) bool { return IsCategory(err, CategoryData) }

// IsState reports whether err is an invalid-state error.
func IsState(err error) bool { return IsCategory(err, CategoryState) }

// IsNotFound reports whether err is a registry not-found error.
func IsNotFound(err error) bool { return IsCategory(err, CategoryNotFound) }

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool { return IsCategory(err, CategoryCancelled) }
