// internal/geocoding/cache.go
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// CachedGeocoder decorates a Geocoder with a redis cache of successful
// lookups. Addresses and coordinates are stable, so hits spare the upstream
// quota. Cache failures fall through to the wrapped geocoder.
type CachedGeocoder struct {
	next   Geocoder
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "geocoding-cache"}),
	}
}

func (g *CachedGeocoder) Forward(ctx context.Context, address string) (*Coordinates, error) {
	cacheKey := "geocode:fwd:" + address
	if val, err := g.redis.Get(ctx, cacheKey).Result(); err == nil {
		var coords Coordinates
		if err := json.Unmarshal([]byte(val), &coords); err == nil {
			metrics.GeocodeCacheHits.WithLabelValues("forward").Inc()
			return &coords, nil
		}
	}

	coords, err := g.next.Forward(ctx, address)
	if err != nil {
		return nil, err
	}

	g.store(ctx, cacheKey, coords)
	return coords, nil
}

func (g *CachedGeocoder) Reverse(ctx context.Context, lat, lng float64) (*PlaceDetails, error) {
	cacheKey := fmt.Sprintf("geocode:rev:%f,%f", lat, lng)
	if val, err := g.redis.Get(ctx, cacheKey).Result(); err == nil {
		var place PlaceDetails
		if err := json.Unmarshal([]byte(val), &place); err == nil {
			metrics.GeocodeCacheHits.WithLabelValues("reverse").Inc()
			return &place, nil
		}
	}

	place, err := g.next.Reverse(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	g.store(ctx, cacheKey, place)
	return place, nil
}

func (g *CachedGeocoder) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := g.redis.Set(ctx, key, data, g.ttl).Err(); err != nil {
		g.logger.Debug("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
