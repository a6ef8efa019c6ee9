// internal/enrichment/sweeper_test.go
package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compost-match-engine/internal/common/config"
	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeBackfillStore struct {
	listings   []models.WasteListing
	composters []models.Composter

	listingUpdates   map[int64]models.Location
	composterUpdates map[int64]models.Location

	updateErr error
}

func newFakeBackfillStore() *fakeBackfillStore {
	return &fakeBackfillStore{
		listingUpdates:   make(map[int64]models.Location),
		composterUpdates: make(map[int64]models.Location),
	}
}

func (f *fakeBackfillStore) ListingsMissingCoordinates(ctx context.Context, limit int) ([]models.WasteListing, error) {
	return f.listings, nil
}

func (f *fakeBackfillStore) CompostersMissingCoordinates(ctx context.Context, limit int) ([]models.Composter, error) {
	return f.composters, nil
}

func (f *fakeBackfillStore) UpdateListingLocation(ctx context.Context, id int64, loc *models.Location) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.listingUpdates[id] = *loc
	return nil
}

func (f *fakeBackfillStore) UpdateComposterLocation(ctx context.Context, id int64, loc *models.Location) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.composterUpdates[id] = *loc
	return nil
}

func newTestSweeper(store BackfillStore, geocoder *fakeGeocoder) *Sweeper {
	cfg := &config.EnrichmentConfig{Enabled: true, SweepInterval: 300, BatchSize: 50}
	return NewSweeper(cfg, store, newTestEnricher(geocoder), logger.NewNoOpLogger())
}

// ==========================
// Sweeper Tests
// ==========================

func TestSweeper_BackfillsListingsAndComposters(t *testing.T) {
	store := newFakeBackfillStore()
	store.listings = []models.WasteListing{
		{ID: 1, Location: models.Location{Address: "Green Park, Delhi"}},
	}
	store.composters = []models.Composter{
		{ID: 5, Location: models.Location{Address: "Andheri West, Mumbai"}},
	}

	enriched, err := newTestSweeper(store, delhiGeocoder()).SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, enriched)

	listingLoc, ok := store.listingUpdates[1]
	require.True(t, ok)
	assert.True(t, listingLoc.HasCoordinates())
	assert.Equal(t, "New Delhi", listingLoc.City)

	composterLoc, ok := store.composterUpdates[5]
	require.True(t, ok)
	assert.True(t, composterLoc.HasCoordinates())
}

func TestSweeper_SkipsUngeocodableEntities(t *testing.T) {
	store := newFakeBackfillStore()
	store.listings = []models.WasteListing{
		{ID: 1, Location: models.Location{Address: "xyzzy nowhere"}},
	}
	geocoder := &fakeGeocoder{forwardErr: errors.New("GEOCODE_NOT_FOUND")}

	enriched, err := newTestSweeper(store, geocoder).SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, enriched)
	assert.Empty(t, store.listingUpdates)
}

func TestSweeper_EmptySweep(t *testing.T) {
	store := newFakeBackfillStore()

	enriched, err := newTestSweeper(store, delhiGeocoder()).SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, enriched)
}

func TestSweeper_StoreFailureAbortsBatch(t *testing.T) {
	store := newFakeBackfillStore()
	store.listings = []models.WasteListing{
		{ID: 1, Location: models.Location{Address: "Green Park, Delhi"}},
	}
	store.updateErr = errors.New("connection reset")

	_, err := newTestSweeper(store, delhiGeocoder()).SweepOnce(context.Background())
	assert.Error(t, err)
}
