package grading

import (
	"errors"
	"fmt"
)

// ErrEmptySubmission indicates no gradable text could be extracted from a submission.
var ErrEmptySubmission = errors.New("unable to extract submission content")

// ErrNoBackendEnabled indicates the options selected neither backend.
var ErrNoBackendEnabled = errors.New("no grading backend enabled")

// ConfigurationError is returned when a selected backend lacks a credential or URL.
type ConfigurationError struct {
	Backend string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s backend not configured: %s", e.Backend, e.Reason)
}

// ProviderError wraps transport, auth or decoding failures from the backends.
type ProviderError struct {
	Backend string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("grading provider failed: %v", e.Err)
	}
	return fmt.Sprintf("%s grading provider failed: %v", e.Backend, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err comes only from missing backend configuration.
// A joined error qualifies only when every part is a ConfigurationError, so a real provider
// failure alongside a missing key is not reported as a configuration problem.
func IsConfigurationError(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ConfigurationError:
		return true
	case *ProviderError:
		return e.Backend == "" && IsConfigurationError(e.Err)
	case interface{ Unwrap() []error }:
		parts := e.Unwrap()
		if len(parts) == 0 {
			return false
		}
		for _, part := range parts {
			if !IsConfigurationError(part) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return IsConfigurationError(e.Unwrap())
	default:
		return false
	}
}
