package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a blank query or out-of-range search parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidRequest signals a malformed request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTooManyFiles signals an upload over the per-request file limit.
	ErrTooManyFiles = errors.New("too many files")
	// ErrUnsupportedImage signals an upload that is not a PNG or JPEG image.
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrTaggingProviderError signals a tagging model failure or an empty tag response.
	ErrTaggingProviderError = errors.New("tagging provider error")
	// ErrVectorStoreError signals a vector store failure.
	ErrVectorStoreError = errors.New("vector store error")
	// ErrConfiguration signals structurally invalid configuration handed to a pure component.
	ErrConfiguration = errors.New("configuration error")
)

// ConfigurationError wraps ErrConfiguration with the offending parameter.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfiguration.Error(), e.Param, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError creates a configuration error for the given parameter.
func NewConfigurationError(param, reason string) error {
	return &ConfigurationError{Param: param, Reason: reason}
}
