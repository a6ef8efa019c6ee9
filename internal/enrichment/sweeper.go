// internal/enrichment/sweeper.go
package enrichment

import (
	"context"
	"time"

	"compost-match-engine/internal/common/config"
	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/common/metrics"
	"compost-match-engine/internal/models"
)

// BackfillStore is what the sweeper needs from the persistence layer:
// entities still missing coordinates, and a way to write results back.
type BackfillStore interface {
	ListingsMissingCoordinates(ctx context.Context, limit int) ([]models.WasteListing, error)
	CompostersMissingCoordinates(ctx context.Context, limit int) ([]models.Composter, error)
	UpdateListingLocation(ctx context.Context, id int64, loc *models.Location) error
	UpdateComposterLocation(ctx context.Context, id int64, loc *models.Location) error
}

// Sweeper periodically backfills coordinates for listings and composter
// accounts that were created before enrichment ran, or whose geocoding
// failed at write time.
type Sweeper struct {
	config   *config.EnrichmentConfig
	store    BackfillStore
	enricher *Enricher
	logger   logger.Logger
}

func NewSweeper(cfg *config.EnrichmentConfig, store BackfillStore, enricher *Enricher, log logger.Logger) *Sweeper {
	return &Sweeper{
		config:   cfg,
		store:    store,
		enricher: enricher,
		logger:   log.WithFields(map[string]interface{}{"component": "enrichment-sweeper"}),
	}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := time.Duration(s.config.SweepInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", map[string]interface{}{
		"interval":  interval.String(),
		"batchSize": s.config.BatchSize,
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped", nil)
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.WithError(err).Error("sweep failed", nil)
			}
		}
	}
}

// SweepOnce processes one batch of listings and one batch of composters,
// returning how many entities were enriched. A geocoding miss on one entity
// never aborts the batch; only store failures do.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	batch := s.config.BatchSize
	if batch <= 0 {
		batch = 50
	}

	enriched := 0

	listings, err := s.store.ListingsMissingCoordinates(ctx, batch)
	if err != nil {
		return enriched, err
	}
	for i := range listings {
		listing := &listings[i]
		if !s.enricher.Enrich(ctx, &listing.Location, "") {
			metrics.EnrichmentsTotal.WithLabelValues("listing", "skipped").Inc()
			continue
		}
		if err := s.store.UpdateListingLocation(ctx, listing.ID, &listing.Location); err != nil {
			metrics.EnrichmentsTotal.WithLabelValues("listing", "error").Inc()
			return enriched, err
		}
		metrics.EnrichmentsTotal.WithLabelValues("listing", "success").Inc()
		enriched++
	}

	composters, err := s.store.CompostersMissingCoordinates(ctx, batch)
	if err != nil {
		return enriched, err
	}
	for i := range composters {
		composter := &composters[i]
		if !s.enricher.Enrich(ctx, &composter.Location, "") {
			metrics.EnrichmentsTotal.WithLabelValues("composter", "skipped").Inc()
			continue
		}
		if err := s.store.UpdateComposterLocation(ctx, composter.ID, &composter.Location); err != nil {
			metrics.EnrichmentsTotal.WithLabelValues("composter", "error").Inc()
			return enriched, err
		}
		metrics.EnrichmentsTotal.WithLabelValues("composter", "success").Inc()
		enriched++
	}

	if enriched > 0 {
		s.logger.Info("sweep complete", map[string]interface{}{
			"enriched": enriched,
		})
	}

	return enriched, nil
}
