// internal/enrichment/enricher.go
package enrichment

import (
	"context"
	"errors"
	"strings"

	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/geocoding"
	"compost-match-engine/internal/models"
)

// Enricher fills in coordinates and normalized place fields on a Location
// from its free-text address. Every failure is contained here: the worst
// observable effect is that the location fields remain unset. The caller
// persists the mutated entity; the enricher has no transaction semantics.
type Enricher struct {
	geocoder geocoding.Geocoder
	logger   logger.Logger
}

func NewEnricher(geocoder geocoding.Geocoder, log logger.Logger) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		logger:   log.WithFields(map[string]interface{}{"component": "enrichment"}),
	}
}

// Enrich resolves the address (explicit argument wins over loc.Address) and
// mutates loc in place. Returns whether anything changed.
func (e *Enricher) Enrich(ctx context.Context, loc *models.Location, address string) bool {
	addr := strings.TrimSpace(address)
	if addr == "" {
		addr = strings.TrimSpace(loc.Address)
	}
	if addr == "" {
		return false
	}

	coords, err := e.geocoder.Forward(ctx, addr)
	if err != nil {
		if errors.Is(err, geocoding.ErrNotFound) {
			e.logger.Debug("address not geocodable", map[string]interface{}{
				"address": addr,
			})
		} else {
			e.logger.Warn("forward geocoding failed", map[string]interface{}{
				"address": addr,
				"error":   err.Error(),
			})
		}
		return false
	}

	loc.SetCoordinates(coords.Latitude, coords.Longitude)

	place, err := e.geocoder.Reverse(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		// Coordinates stay committed; only the place fields are skipped.
		if !errors.Is(err, geocoding.ErrNotFound) {
			e.logger.Warn("reverse geocoding failed", map[string]interface{}{
				"latitude":  coords.Latitude,
				"longitude": coords.Longitude,
				"error":     err.Error(),
			})
		}
		return true
	}

	loc.City = place.City
	loc.State = place.State
	loc.Country = place.Country

	// Never overwrite a label the user already chose.
	if loc.Label == "" {
		if place.Formatted != "" {
			loc.Label = place.Formatted
		} else {
			loc.Label = addr
		}
	}

	return true
}
