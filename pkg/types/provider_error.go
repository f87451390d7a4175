package types

import "fmt"

// ErrorCode categorizes provider errors following CIM status semantics
type ErrorCode string

const (
	ErrCodeFailed           ErrorCode = "failed"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeNotSupported     ErrorCode = "not_supported"
	ErrCodeInvalidParameter ErrorCode = "invalid_parameter"
	ErrCodeInvalidClass     ErrorCode = "invalid_class"
	ErrCodeAccessDenied     ErrorCode = "access_denied"
	ErrCodeTimeout          ErrorCode = "timeout"
	ErrCodeUnavailable      ErrorCode = "unavailable"
	ErrCodeStale            ErrorCode = "stale"
)

// ProviderError represents a standardized error from a provider
type ProviderError struct {
	Code        ErrorCode // Categorized error code
	Message     string    // Human-readable message
	Provider    string    // Which provider generated this error
	Operation   string    // What operation failed (e.g., "enumerate_instances")
	Class       ClassName // CIM class involved, if any
	OriginalErr error     // Wrapped original error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("[%s] %s (class=%s, code=%s)", e.Provider, e.Message, e.Class, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, e.Message, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns true if the error is potentially recoverable with retry
func (e *ProviderError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeStale:
		return true
	}
	return false
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation string) *ProviderError {
	e.Operation = operation
	return e
}

// WithClass sets the class field and returns the error for chaining
func (e *ProviderError) WithClass(class ClassName) *ProviderError {
	e.Class = class
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider string, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(provider string, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeNotFound,
		Message:  message,
		Provider: provider,
	}
}

// NewNotSupportedError creates a new not supported error
func NewNotSupportedError(provider string, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeNotSupported,
		Message:  message,
		Provider: provider,
	}
}

// NewInvalidParameterError creates a new invalid parameter error
func NewInvalidParameterError(provider string, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeInvalidParameter,
		Message:  message,
		Provider: provider,
	}
}

// NewInvalidClassError creates a new invalid class error
func NewInvalidClassError(provider string, class ClassName) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeInvalidClass,
		Message:  fmt.Sprintf("class %s is not served by this provider", class),
		Provider: provider,
		Class:    class,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(provider string, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeTimeout,
		Message:  message,
		Provider: provider,
	}
}

// NewUnavailableError creates a new unavailable error
func NewUnavailableError(provider string, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeUnavailable,
		Message:  message,
		Provider: provider,
	}
}

// NewStaleError creates a new stale snapshot error
func NewStaleError(provider string, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeStale,
		Message:  message,
		Provider: provider,
	}
}
