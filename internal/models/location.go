// internal/models/location.go
package models

// Location carries the spatial fields shared by accounts and waste listings.
// Latitude and Longitude are set together or not at all; City/State/Country are
// normalized place names filled in by enrichment. Address is the raw free-text
// input handed to the geocoder, Label is the human-readable display string
// (pickup_location on listings, location on accounts in the marketplace schema).
type Location struct {
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Label     string   `json:"label,omitempty"`
}

// HasCoordinates reports whether both coordinates are present and geodetically valid.
func (l *Location) HasCoordinates() bool {
	if l.Latitude == nil || l.Longitude == nil {
		return false
	}
	lat, lng := *l.Latitude, *l.Longitude
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// SetCoordinates sets both coordinates at once.
func (l *Location) SetCoordinates(lat, lng float64) {
	l.Latitude = &lat
	l.Longitude = &lng
}
