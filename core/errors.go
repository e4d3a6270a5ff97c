package core

import (
	"errors"
	"fmt"
)

// TransientReason classifies a transient provider failure. Exactly these three
// classes are eligible for retry; everything else fails immediately.
type TransientReason string

const (
	// ReasonRateLimited marks a rate-limit rejection from the provider.
	ReasonRateLimited TransientReason = "rate_limited"
	// ReasonTimeout marks a request that exceeded its deadline.
	ReasonTimeout TransientReason = "timeout"
	// ReasonConnection marks a network-level connection failure.
	ReasonConnection TransientReason = "connection"
)

// ConfigError reports missing or invalid provider configuration (typically
// credentials). It is surfaced before any network attempt and never retried.
type ConfigError struct {
	Provider string
	Message  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Provider, e.Message)
}

// NewConfigError builds a ConfigError for the named provider.
func NewConfigError(provider, message string) *ConfigError {
	return &ConfigError{Provider: provider, Message: message}
}

// TransientError wraps a provider failure that is expected to resolve itself
// on retry (rate limit, timeout, connection failure).
type TransientError struct {
	Provider string
	Reason   TransientReason
	Err      error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

// Unwrap exposes the underlying transport error for errors.Is/As chains.
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as a transient failure of the given class.
func NewTransientError(provider string, reason TransientReason, err error) *TransientError {
	return &TransientError{Provider: provider, Reason: reason, Err: err}
}

// APIError is a permanent remote rejection carrying the provider's status code
// and message. It is never retried.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// NewAPIError builds an APIError for the named provider.
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{Provider: provider, StatusCode: statusCode, Message: message}
}

// IsTransient reports whether err is (or wraps) a TransientError and is
// therefore eligible for retry.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// TransientReasonOf returns the transient class of err, or "" when err is not
// transient.
func TransientReasonOf(err error) TransientReason {
	var te *TransientError
	if errors.As(err, &te) {
		return te.Reason
	}
	return ""
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
