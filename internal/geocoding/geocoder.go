// internal/geocoding/geocoder.go
package geocoding

import (
	"context"
	"errors"
)

var (
	// ErrNotFound marks an address or coordinate pair the provider could not
	// resolve. Expected and non-exceptional.
	ErrNotFound = errors.New("GEOCODE_NOT_FOUND")

	// ErrProvider marks a missing credential, transport failure, timeout or
	// malformed upstream payload. Callers treat it like ErrNotFound for
	// enrichment purposes: degrade silently, never abort the broader
	// operation.
	ErrProvider = errors.New("GEOCODE_PROVIDER_ERROR")
)

// Coordinates is a geodetically valid point in floating point degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceDetails holds the normalized place fields of a reverse lookup.
type PlaceDetails struct {
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// Geocoder resolves free-text addresses to coordinates and coordinates to
// normalized place fields. Implementations: the OpenCage Client and the redis
// CachedGeocoder decorator; tests substitute fakes.
type Geocoder interface {
	Forward(ctx context.Context, address string) (*Coordinates, error)
	Reverse(ctx context.Context, lat, lng float64) (*PlaceDetails, error)
}
