// internal/geocoding/cache_test.go
package geocoding

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compost-match-engine/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type countingGeocoder struct {
	forwardCalls int
	reverseCalls int

	coords *Coordinates
	place  *PlaceDetails
	err    error
}

func (c *countingGeocoder) Forward(ctx context.Context, address string) (*Coordinates, error) {
	c.forwardCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.coords, nil
}

func (c *countingGeocoder) Reverse(ctx context.Context, lat, lng float64) (*PlaceDetails, error) {
	c.reverseCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.place, nil
}

func setupCache(t *testing.T, next Geocoder, ttl time.Duration) (*CachedGeocoder, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewCachedGeocoder(next, rdb, ttl, logger.NewNoOpLogger()), mr
}

// ==========================
// Cache Behavior Tests
// ==========================

func TestCachedGeocoder_Forward_CachesSuccess(t *testing.T) {
	next := &countingGeocoder{coords: &Coordinates{Latitude: 28.6139, Longitude: 77.2090}}
	cache, _ := setupCache(t, next, time.Hour)

	for i := 0; i < 3; i++ {
		coords, err := cache.Forward(context.Background(), "Green Park, Delhi")
		require.NoError(t, err)
		assert.Equal(t, 28.6139, coords.Latitude)
	}

	assert.Equal(t, 1, next.forwardCalls)
}

func TestCachedGeocoder_Forward_DistinctAddressesMiss(t *testing.T) {
	next := &countingGeocoder{coords: &Coordinates{Latitude: 1, Longitude: 2}}
	cache, _ := setupCache(t, next, time.Hour)

	_, err := cache.Forward(context.Background(), "Green Park, Delhi")
	require.NoError(t, err)
	_, err = cache.Forward(context.Background(), "Andheri West, Mumbai")
	require.NoError(t, err)

	assert.Equal(t, 2, next.forwardCalls)
}

func TestCachedGeocoder_Forward_FailuresNotCached(t *testing.T) {
	next := &countingGeocoder{err: ErrNotFound}
	cache, mr := setupCache(t, next, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := cache.Forward(context.Background(), "xyzzy")
		assert.ErrorIs(t, err, ErrNotFound)
	}

	assert.Equal(t, 2, next.forwardCalls)
	assert.Empty(t, mr.Keys())
}

func TestCachedGeocoder_Forward_ExpiryRefetches(t *testing.T) {
	next := &countingGeocoder{coords: &Coordinates{Latitude: 1, Longitude: 2}}
	cache, mr := setupCache(t, next, time.Minute)

	_, err := cache.Forward(context.Background(), "Green Park, Delhi")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cache.Forward(context.Background(), "Green Park, Delhi")
	require.NoError(t, err)
	assert.Equal(t, 2, next.forwardCalls)
}

func TestCachedGeocoder_Forward_RedisDownFallsThrough(t *testing.T) {
	next := &countingGeocoder{coords: &Coordinates{Latitude: 1, Longitude: 2}}
	cache, mr := setupCache(t, next, time.Hour)
	mr.Close()

	coords, err := cache.Forward(context.Background(), "Green Park, Delhi")
	require.NoError(t, err)
	assert.Equal(t, 1.0, coords.Latitude)
	assert.Equal(t, 1, next.forwardCalls)
}

func TestCachedGeocoder_Reverse_CachesSuccess(t *testing.T) {
	next := &countingGeocoder{place: &PlaceDetails{City: "New Delhi", State: "Delhi", Country: "India"}}
	cache, _ := setupCache(t, next, time.Hour)

	for i := 0; i < 3; i++ {
		place, err := cache.Reverse(context.Background(), 28.6139, 77.2090)
		require.NoError(t, err)
		assert.Equal(t, "New Delhi", place.City)
	}

	assert.Equal(t, 1, next.reverseCalls)
}

func TestCachedGeocoder_Reverse_KeyedByCoordinates(t *testing.T) {
	next := &countingGeocoder{place: &PlaceDetails{City: "Somewhere"}}
	cache, _ := setupCache(t, next, time.Hour)

	_, err := cache.Reverse(context.Background(), 28.6139, 77.2090)
	require.NoError(t, err)
	_, err = cache.Reverse(context.Background(), 19.0760, 72.8777)
	require.NoError(t, err)

	assert.Equal(t, 2, next.reverseCalls)
}
