// internal/matching/ranker.go
package matching

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"compost-match-engine/internal/common/config"
	engineerrors "compost-match-engine/internal/common/errors"
	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/common/metrics"
	"compost-match-engine/internal/common/observability"
	"compost-match-engine/internal/models"
)

// SnapshotSource provides the read-only state a ranking run needs. A run
// observes one snapshot; concurrent writes after the snapshot is taken do
// not affect an in-flight ranking.
type SnapshotSource interface {
	// GetListing returns (nil, nil) when the listing does not exist.
	GetListing(ctx context.Context, id int64) (*models.WasteListing, error)
	ActiveComposters(ctx context.Context) ([]models.Composter, error)
	// OpenAssignmentCount counts listings currently assigned to the
	// composter that are in an open status.
	OpenAssignmentCount(ctx context.Context, composterID int64) (int, error)
}

// Match is a single ranked candidate.
type Match struct {
	ComposterID int64   `json:"composterId"`
	Score       float64 `json:"score"`
	Factors     Factors `json:"factors"`
}

// Ranker scores all active composters against a listing and returns the
// best candidates in order.
type Ranker struct {
	config *config.MatchingConfig
	source SnapshotSource
	obs    *observability.Observability
	logger logger.Logger
}

func NewRanker(cfg *config.MatchingConfig, source SnapshotSource, obs *observability.Observability, log logger.Logger) *Ranker {
	return &Ranker{
		config: cfg,
		source: source,
		obs:    obs,
		logger: log,
	}
}

// Rank returns the top candidates for a listing, ordered by score descending
// with composter ID ascending as the tie-break. Candidates scoring zero are
// dropped. A missing listing yields an empty result, not an error; a limit
// of zero or less is rejected.
func (r *Ranker) Rank(ctx context.Context, listingID int64, limit int) ([]Match, error) {
	if limit <= 0 {
		return nil, engineerrors.NewInvalidLimitError(limit)
	}

	matchID := uuid.New().String()
	log := r.logger.WithFields(map[string]interface{}{
		"matchId":   matchID,
		"listingId": listingID,
	})
	start := time.Now()

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.config.Timeout)*time.Millisecond)
		defer cancel()
	}

	listing, err := r.source.GetListing(ctx, listingID)
	if err != nil {
		r.recordOutcome(ctx, "error", start)
		log.WithError(err).Error("failed to load listing snapshot", nil)
		return nil, err
	}
	if listing == nil {
		r.recordOutcome(ctx, "listing_not_found", start)
		log.Info("listing not found, returning empty ranking", nil)
		return []Match{}, nil
	}

	composters, err := r.source.ActiveComposters(ctx)
	if err != nil {
		r.recordOutcome(ctx, "error", start)
		log.WithError(err).Error("failed to enumerate active composters", nil)
		return nil, err
	}

	candidates := make([]Match, len(composters))
	scored := make([]bool, len(composters))

	g, gctx := errgroup.WithContext(ctx)
	workers := r.config.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := range composters {
		g.Go(func() error {
			composter := composters[i]
			load, err := r.source.OpenAssignmentCount(gctx, composter.ID)
			if err != nil {
				return err
			}
			total, factors := Score(listing, &composter, load)
			if total > 0 {
				candidates[i] = Match{
					ComposterID: composter.ID,
					Score:       total,
					Factors:     factors,
				}
				scored[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.recordOutcome(ctx, "error", start)
		log.WithError(err).Error("candidate scoring failed", nil)
		return nil, err
	}

	matches := make([]Match, 0, len(composters))
	for i, ok := range scored {
		if ok {
			matches = append(matches, candidates[i])
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ComposterID < matches[j].ComposterID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	metrics.MatchCandidatesScored.Observe(float64(len(composters)))
	r.recordOutcome(ctx, "success", start)
	log.Info("ranking complete", map[string]interface{}{
		"candidates": len(composters),
		"matches":    len(matches),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return matches, nil
}

// RankIDs is a convenience wrapper returning only the ordered composter IDs.
func (r *Ranker) RankIDs(ctx context.Context, listingID int64, limit int) ([]int64, error) {
	matches, err := r.Rank(ctx, listingID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ComposterID
	}
	return ids, nil
}

func (r *Ranker) recordOutcome(ctx context.Context, status string, start time.Time) {
	metrics.MatchRequestsTotal.WithLabelValues(status).Inc()
	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	if r.obs != nil {
		r.obs.RecordRank(ctx, status)
		r.obs.RecordRankDuration(ctx, time.Since(start), status)
	}
}
