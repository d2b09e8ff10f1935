package leadscout

import (
	"errors"
	"fmt"
)

// Error codes for specific failure types
const (
	ErrCodeDecisionParse      = "DECISION_PARSE_ERROR"
	ErrCodeBackendInvocation  = "BACKEND_INVOCATION_ERROR"
	ErrCodeProviderConnection = "PROVIDER_CONNECTION_ERROR"
	ErrCodeConfiguration      = "CONFIGURATION_ERROR"
	ErrCodeCancelled          = "RUN_CANCELLED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// AgentError is the error type used at every component boundary. Failures
// below the orchestration loop never propagate past it; they are converted to
// fallback values, and AgentError carries enough context to decide which
// fallback applies.
type AgentError struct {
	Code    string // machine-readable code (e.g. ErrCodeProviderConnection)
	Stage   string // the stage where the error occurred (e.g. "gateway", "decision")
	Message string // human-readable message
	Cause   error  // underlying error, if any
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error, allowing for error chaining.
func (e *AgentError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AgentError.
func NewError(code, stage, message string, cause error) *AgentError {
	return &AgentError{
		Code:    code,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err is (or wraps) an AgentError with the given code.
func HasCode(err error, code string) bool {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// Specific error constructors. Tool-level failures (unknown name, per-call
// timeout, provider-reported errors) never become Go errors; they travel as
// failed ToolResult values, so only session, backend, and run-level failures
// have constructors here.

func NewDecisionParseError(cause error) *AgentError {
	return NewError(ErrCodeDecisionParse, "decision", "backend did not produce a parseable tool selection", cause)
}

func NewBackendInvocationError(cause error) *AgentError {
	return NewError(ErrCodeBackendInvocation, "backend", "backend invocation failed", cause)
}

func NewProviderConnectionError(cause error) *AgentError {
	return NewError(ErrCodeProviderConnection, "gateway", "provider connection failed", cause)
}

func NewConfigurationError(message string, cause error) *AgentError {
	return NewError(ErrCodeConfiguration, "initialization", message, cause)
}

func NewCancelledError(stage string, cause error) *AgentError {
	return NewError(ErrCodeCancelled, stage, "run cancelled", cause)
}

func NewInternalError(stage, message string, cause error) *AgentError {
	return NewError(ErrCodeInternal, stage, message, cause)
}
