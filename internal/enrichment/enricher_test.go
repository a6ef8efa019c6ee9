// internal/enrichment/enricher_test.go
package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/geocoding"
	"compost-match-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeGeocoder struct {
	coords     *geocoding.Coordinates
	place      *geocoding.PlaceDetails
	forwardErr error
	reverseErr error

	forwardCalls int
	reverseCalls int
}

func (f *fakeGeocoder) Forward(ctx context.Context, address string) (*geocoding.Coordinates, error) {
	f.forwardCalls++
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	return f.coords, nil
}

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lng float64) (*geocoding.PlaceDetails, error) {
	f.reverseCalls++
	if f.reverseErr != nil {
		return nil, f.reverseErr
	}
	return f.place, nil
}

func delhiGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		coords: &geocoding.Coordinates{Latitude: 28.6139, Longitude: 77.2090},
		place: &geocoding.PlaceDetails{
			City:      "New Delhi",
			State:     "Delhi",
			Country:   "India",
			Formatted: "Green Park, New Delhi, Delhi, India",
		},
	}
}

func newTestEnricher(g geocoding.Geocoder) *Enricher {
	return NewEnricher(g, logger.NewNoOpLogger())
}

// ==========================
// Enrichment Tests
// ==========================

func TestEnricher_FullEnrichment(t *testing.T) {
	loc := &models.Location{}
	changed := newTestEnricher(delhiGeocoder()).Enrich(context.Background(), loc, "Green Park, Delhi")

	assert.True(t, changed)
	require.True(t, loc.HasCoordinates())
	assert.Equal(t, 28.6139, *loc.Latitude)
	assert.Equal(t, 77.2090, *loc.Longitude)
	assert.Equal(t, "New Delhi", loc.City)
	assert.Equal(t, "Delhi", loc.State)
	assert.Equal(t, "India", loc.Country)
	assert.Equal(t, "Green Park, New Delhi, Delhi, India", loc.Label)
}

func TestEnricher_FallsBackToLocationAddress(t *testing.T) {
	geocoder := delhiGeocoder()
	loc := &models.Location{Address: "Green Park, Delhi"}

	changed := newTestEnricher(geocoder).Enrich(context.Background(), loc, "")

	assert.True(t, changed)
	assert.Equal(t, 1, geocoder.forwardCalls)
	assert.True(t, loc.HasCoordinates())
}

func TestEnricher_NoAddressIsNoOp(t *testing.T) {
	geocoder := delhiGeocoder()
	loc := &models.Location{}

	changed := newTestEnricher(geocoder).Enrich(context.Background(), loc, "   ")

	assert.False(t, changed)
	assert.Equal(t, 0, geocoder.forwardCalls)
	assert.False(t, loc.HasCoordinates())
}

func TestEnricher_ForwardNotFoundLeavesLocationUntouched(t *testing.T) {
	geocoder := &fakeGeocoder{forwardErr: geocoding.ErrNotFound}
	loc := &models.Location{City: "Delhi"}

	changed := newTestEnricher(geocoder).Enrich(context.Background(), loc, "xyzzy nowhere")

	assert.False(t, changed)
	assert.False(t, loc.HasCoordinates())
	assert.Equal(t, "Delhi", loc.City)
	assert.Equal(t, 0, geocoder.reverseCalls)
}

func TestEnricher_ForwardProviderErrorContained(t *testing.T) {
	geocoder := &fakeGeocoder{forwardErr: geocoding.ErrProvider}
	loc := &models.Location{}

	changed := newTestEnricher(geocoder).Enrich(context.Background(), loc, "Green Park")

	assert.False(t, changed)
	assert.False(t, loc.HasCoordinates())
}

func TestEnricher_ReverseFailureKeepsCoordinates(t *testing.T) {
	geocoder := delhiGeocoder()
	geocoder.reverseErr = geocoding.ErrProvider
	loc := &models.Location{}

	changed := newTestEnricher(geocoder).Enrich(context.Background(), loc, "Green Park, Delhi")

	assert.True(t, changed)
	require.True(t, loc.HasCoordinates())
	assert.Equal(t, 28.6139, *loc.Latitude)
	assert.Empty(t, loc.City)
	assert.Empty(t, loc.Country)
}

func TestEnricher_ExistingLabelPreserved(t *testing.T) {
	loc := &models.Location{Label: "My compost spot"}
	changed := newTestEnricher(delhiGeocoder()).Enrich(context.Background(), loc, "Green Park, Delhi")

	assert.True(t, changed)
	assert.Equal(t, "My compost spot", loc.Label)
	assert.Equal(t, "New Delhi", loc.City)
}

func TestEnricher_LabelFallsBackToAddress(t *testing.T) {
	geocoder := delhiGeocoder()
	geocoder.place.Formatted = ""
	loc := &models.Location{}

	changed := newTestEnricher(geocoder).Enrich(context.Background(), loc, "Green Park, Delhi")

	assert.True(t, changed)
	assert.Equal(t, "Green Park, Delhi", loc.Label)
}
