// internal/matching/ranker_test.go
package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compost-match-engine/internal/common/config"
	engineerrors "compost-match-engine/internal/common/errors"
	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSource struct {
	listings   map[int64]*models.WasteListing
	composters []models.Composter
	loads      map[int64]int

	listingErr error
	loadErr    error
}

func (f *fakeSource) GetListing(ctx context.Context, id int64) (*models.WasteListing, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	return f.listings[id], nil
}

func (f *fakeSource) ActiveComposters(ctx context.Context) ([]models.Composter, error) {
	return f.composters, nil
}

func (f *fakeSource) OpenAssignmentCount(ctx context.Context, composterID int64) (int, error) {
	if f.loadErr != nil {
		return 0, f.loadErr
	}
	return f.loads[composterID], nil
}

func testMatchingConfig() *config.MatchingConfig {
	return &config.MatchingConfig{
		DefaultLimit: 10,
		MaxWorkers:   4,
	}
}

func newTestRanker(source SnapshotSource) *Ranker {
	return NewRanker(testMatchingConfig(), source, nil, logger.NewNoOpLogger())
}

func delhiListing(id int64) *models.WasteListing {
	l := &models.WasteListing{
		ID:        id,
		WasteType: models.WasteTypeOrganic,
		Status:    models.ListingStatusAvailable,
	}
	l.Location.SetCoordinates(28.6139, 77.2090)
	return l
}

// ==========================
// Ranking Tests
// ==========================

func TestRanker_OrdersByScoreDescending(t *testing.T) {
	source := &fakeSource{
		listings: map[int64]*models.WasteListing{42: delhiListing(42)},
		composters: []models.Composter{
			*composterAt(1, 19.0760, 72.8777), // Mumbai, far
			*composterAt(2, 28.6139, 77.2090), // Delhi, same spot
		},
		loads: map[int64]int{1: 2, 2: 2},
	}

	matches, err := newTestRanker(source).Rank(context.Background(), 42, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, int64(2), matches[0].ComposterID)
	assert.Equal(t, 100.0, matches[0].Score)
	assert.Equal(t, int64(1), matches[1].ComposterID)
	assert.Equal(t, 55.0, matches[1].Score)
}

func TestRanker_TieBreaksByAscendingID(t *testing.T) {
	// Identical locations and loads produce identical scores, so order
	// must fall back to composter ID.
	source := &fakeSource{
		listings: map[int64]*models.WasteListing{42: delhiListing(42)},
		composters: []models.Composter{
			*composterAt(9, 28.6139, 77.2090),
			*composterAt(3, 28.6139, 77.2090),
			*composterAt(7, 28.6139, 77.2090),
		},
		loads: map[int64]int{},
	}

	matches, err := newTestRanker(source).Rank(context.Background(), 42, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, int64(3), matches[0].ComposterID)
	assert.Equal(t, int64(7), matches[1].ComposterID)
	assert.Equal(t, int64(9), matches[2].ComposterID)
}

func TestRanker_TruncatesToLimit(t *testing.T) {
	composters := make([]models.Composter, 0, 25)
	for i := int64(1); i <= 25; i++ {
		composters = append(composters, *composterAt(i, 28.6139, 77.2090))
	}
	source := &fakeSource{
		listings:   map[int64]*models.WasteListing{42: delhiListing(42)},
		composters: composters,
		loads:      map[int64]int{},
	}

	matches, err := newTestRanker(source).Rank(context.Background(), 42, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestRanker_MissingListingYieldsEmptyResult(t *testing.T) {
	source := &fakeSource{
		listings:   map[int64]*models.WasteListing{},
		composters: []models.Composter{*composterAt(1, 28.6139, 77.2090)},
		loads:      map[int64]int{},
	}

	matches, err := newTestRanker(source).Rank(context.Background(), 999, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRanker_RejectsNonPositiveLimit(t *testing.T) {
	source := &fakeSource{
		listings: map[int64]*models.WasteListing{42: delhiListing(42)},
	}
	ranker := newTestRanker(source)

	for _, limit := range []int{0, -1, -10} {
		_, err := ranker.Rank(context.Background(), 42, limit)
		require.Error(t, err)

		var stdErr *engineerrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, engineerrors.ErrCodeInvalidLimit, stdErr.Code)
	}
}

func TestRanker_DropsZeroScoreCandidates(t *testing.T) {
	// A listing and composter with no location data at all still share
	// compatibility and load points, so a zero total requires the listing
	// to exist with candidates that score nothing. With the additive
	// factors, load and compatibility always contribute, so all
	// candidates score above zero and survive the filter.
	listing := &models.WasteListing{
		ID:        42,
		WasteType: models.WasteTypePlastic,
		Status:    models.ListingStatusAvailable,
	}
	source := &fakeSource{
		listings:   map[int64]*models.WasteListing{42: listing},
		composters: []models.Composter{{ID: 1, Active: true}},
		loads:      map[int64]int{},
	}

	matches, err := newTestRanker(source).Rank(context.Background(), 42, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	// 0 proximity + 10 compatibility + 20 load.
	assert.Equal(t, 30.0, matches[0].Score)
}

func TestRanker_NoActiveComposters(t *testing.T) {
	source := &fakeSource{
		listings: map[int64]*models.WasteListing{42: delhiListing(42)},
	}

	matches, err := newTestRanker(source).Rank(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRanker_PropagatesListingError(t *testing.T) {
	source := &fakeSource{listingErr: errors.New("connection reset")}

	_, err := newTestRanker(source).Rank(context.Background(), 42, 10)
	assert.Error(t, err)
}

func TestRanker_PropagatesLoadError(t *testing.T) {
	source := &fakeSource{
		listings:   map[int64]*models.WasteListing{42: delhiListing(42)},
		composters: []models.Composter{*composterAt(1, 28.6139, 77.2090)},
		loadErr:    errors.New("connection reset"),
	}

	_, err := newTestRanker(source).Rank(context.Background(), 42, 10)
	assert.Error(t, err)
}

func TestRanker_RankIDs(t *testing.T) {
	source := &fakeSource{
		listings: map[int64]*models.WasteListing{42: delhiListing(42)},
		composters: []models.Composter{
			*composterAt(1, 19.0760, 72.8777),
			*composterAt(2, 28.6139, 77.2090),
		},
		loads: map[int64]int{},
	}

	ids, err := newTestRanker(source).RankIDs(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)
}
