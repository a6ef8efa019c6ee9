// internal/common/errors/errors.go
// Package errors provides standardized error handling for the matching engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Geocoding: not-found codes are expected outcomes, provider codes are
	// contained failures that degrade to "no enrichment this attempt".
	ErrCodeAddressNotFound          ErrorCode = "ADDRESS_NOT_FOUND"
	ErrCodePlaceNotFound            ErrorCode = "PLACE_NOT_FOUND"
	ErrCodeGeocodeProviderError     ErrorCode = "GEOCODE_PROVIDER_ERROR"
	ErrCodeGeocodeTimeout           ErrorCode = "GEOCODE_TIMEOUT"
	ErrCodeGeocodeMalformedResponse ErrorCode = "GEOCODE_MALFORMED_RESPONSE"
	ErrCodeGeocodeCredentialMissing ErrorCode = "GEOCODE_CREDENTIAL_MISSING"

	// Matching
	ErrCodeInvalidLimit    ErrorCode = "INVALID_LIMIT"
	ErrCodeDirectorySearch ErrorCode = "DIRECTORY_SEARCH_FAILED"

	// Storage
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithCause attaches the underlying error so errors.Is can match sentinels
// through the coded wrapper.
func (e *StandardError) WithCause(err error) *StandardError {
	e.cause = err
	return e
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewAddressNotFoundError marks an address the provider could not resolve.
// Expected and non-exceptional: enrichment skips the entity.
func NewAddressNotFoundError(address string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAddressNotFound,
		Message:   "Address could not be geocoded",
		Details:   fmt.Sprintf("address: %s", address),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPlaceNotFoundError marks coordinates that resolve to no known place.
func NewPlaceNotFoundError(lat, lng float64) *StandardError {
	return &StandardError{
		Code:      ErrCodePlaceNotFound,
		Message:   "Coordinates could not be reverse geocoded",
		Details:   fmt.Sprintf("lat: %f, lng: %f", lat, lng),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodeProviderError wraps a transport or upstream failure of the
// geocoding service. Treated as terminal for the attempt, never propagated
// past the enrichment boundary.
func NewGeocodeProviderError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodeProviderError,
		Message:   "Geocoding provider request failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodeTimeoutError marks a geocoding call that exceeded its deadline.
func NewGeocodeTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodeTimeout,
		Message:   "Geocoding provider timeout",
		Details:   "request exceeded configured timeout",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodeMalformedResponseError marks an upstream payload that failed
// schema validation.
func NewGeocodeMalformedResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodeMalformedResponse,
		Message:   "Geocoding provider returned malformed payload",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodeCredentialMissingError marks a missing provider API key.
func NewGeocodeCredentialMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodeCredentialMissing,
		Message:   "Geocoding credential is not configured",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidLimitError marks a contract violation at the rank boundary.
func NewInvalidLimitError(limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidLimit,
		Message:   "Rank limit must be positive",
		Details:   fmt.Sprintf("limit: %d", limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectorySearchError creates a retryable composter directory error.
func NewDirectorySearchError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectorySearch,
		Message:   "Composter directory search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", queryName, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("query: %s", queryName),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code. Geocoding
// failures are terminal for the attempt; a later re-enrichment sweep picks the
// entity up again.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDirectorySearch:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsNotFound reports whether the code marks an expected absence rather than a
// fault.
func IsNotFound(code ErrorCode) bool {
	switch code {
	case ErrCodeAddressNotFound, ErrCodePlaceNotFound:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GEOCODE") || strings.Contains(codeStr, "ADDRESS") || strings.Contains(codeStr, "PLACE"):
		return "GEOCODING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "DIRECTORY"):
		return "SEARCH"
	case strings.Contains(codeStr, "LIMIT"):
		return "MATCHING"
	default:
		return "OTHER"
	}
}
