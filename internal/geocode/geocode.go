// Package geocode defines the reverse-geocoding collaborator used to resolve
// route coordinates to street names.
package geocode

import (
	"context"
	"errors"
)

// Sentinel errors for geocoding operations.
var (
	// ErrProviderUnavailable indicates the geocoding provider is down or the
	// circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the provider quota has been exceeded.
	ErrRateLimitExceeded = errors.New("geocoding rate limit exceeded")
)

// Geocoder resolves coordinates to street names. May be slow or rate-limited;
// callers are expected to tolerate failures on individual lookups.
type Geocoder interface {
	// ReverseGeocode resolves a coordinate to an upper-cased street name.
	// An empty result means no street was found; that is not an error.
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Error provides detailed error information from a geocoding provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
