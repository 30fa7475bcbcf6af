package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures from providers and the classifier so the
// orchestrator and retry layer can decide how to react.
type ErrorKind string

const (
	ErrNotFound     ErrorKind = "not_found"
	ErrTimeout      ErrorKind = "timeout"
	ErrRateLimited  ErrorKind = "rate_limited"
	ErrUnauthorized ErrorKind = "unauthorized"
	ErrUnavailable  ErrorKind = "unavailable"
	ErrParseFailure ErrorKind = "parse_failure"
)

// ProviderError is returned by metadata providers. NotFound means the
// contract is unknown to that provider and is not fatal to the request.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with a provider name and kind.
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// ClassifierError is returned by the spam classifier. ParseFailure means the
// model produced output that could not be read as a verdict; callers must
// treat the address as undetermined rather than defaulting either way.
type ClassifierError struct {
	Kind ErrorKind
	Err  error
}

func (e *ClassifierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("classifier: %s", e.Kind)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// NewClassifierError wraps err with a kind.
func NewClassifierError(kind ErrorKind, err error) *ClassifierError {
	return &ClassifierError{Kind: kind, Err: err}
}

// RequestError is a request-level validation failure. It is the only error
// category that aborts a whole contract status request.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string { return e.Reason }

// NewRequestError builds a request-level validation error.
func NewRequestError(format string, args ...any) *RequestError {
	return &RequestError{Reason: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind from a provider or classifier error.
// Unknown errors map to Unavailable.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var ce *ClassifierError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrUnavailable
}

// IsNotFound reports whether err is a provider NotFound.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrNotFound
}

// IsUnauthorized reports whether err signals bad credentials. Unauthorized
// is a configuration problem and must surface prominently.
func IsUnauthorized(err error) bool {
	return KindOf(err) == ErrUnauthorized
}
