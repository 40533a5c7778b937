package review

import (
	"context"
	"sync"

	"tourify/database/repository"

	"go.uber.org/zap"
)

// TourStatsWriter writes the derived rating aggregate onto a tour.
type TourStatsWriter interface {
	SetRatingStats(ctx context.Context, tourID string, avg float64, quantity int) error
}

// AliasInvalidator drops cached tour listings whose order depends on the
// rating aggregate.
type AliasInvalidator interface {
	InvalidateTopTours(ctx context.Context)
}

// tourMutex is a reference-counted lock entry; it leaves the map once the
// last holder releases it, so the map stays bounded by concurrent activity.
type tourMutex struct {
	sync.Mutex
	refs int
}

// Aggregator keeps a tour's ratingsAverage/ratingsQuantity equal to the
// aggregate over its reviews. It is only ever invoked from review mutation
// paths; tour writes never trigger it.
type Aggregator struct {
	stats  repository.ReviewStatsSource
	tours  TourStatsWriter
	alias  AliasInvalidator
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*tourMutex
}

// NewAggregator wires the aggregator to its stats source and tour writer.
// The alias invalidator may be nil when no rating-ordered cache exists.
func NewAggregator(stats repository.ReviewStatsSource, tours TourStatsWriter, alias AliasInvalidator, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		stats:  stats,
		tours:  tours,
		alias:  alias,
		logger: logger,
		locks:  make(map[string]*tourMutex),
	}
}

// acquire takes the mutex serializing recomputation for one tour id. The
// aggregation itself is a single server-side read, but the read-then-write
// pair must not interleave for the same tour.
func (a *Aggregator) acquire(tourID string) *tourMutex {
	a.mu.Lock()
	lock, ok := a.locks[tourID]
	if !ok {
		lock = &tourMutex{}
		a.locks[tourID] = lock
	}
	lock.refs++
	a.mu.Unlock()

	lock.Lock()
	return lock
}

func (a *Aggregator) release(tourID string, lock *tourMutex) {
	lock.Unlock()

	a.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(a.locks, tourID)
	}
	a.mu.Unlock()
}

// Recompute recalculates count and mean rating over all reviews of the tour
// and writes them onto it. With zero reviews remaining it writes the (0, 0)
// defaults rather than leaving stale values. Recomputation is idempotent.
func (a *Aggregator) Recompute(ctx context.Context, tourID string) error {
	lock := a.acquire(tourID)
	defer a.release(tourID, lock)

	stats, err := a.stats.RatingStats(ctx, tourID)
	if err != nil {
		return err
	}
	if err := a.tours.SetRatingStats(ctx, tourID, stats.AvgRating, stats.NumRatings); err != nil {
		return err
	}

	// The rating aggregate orders the top-tours alias; a recompute that
	// changed it must not leave the cached listing stale.
	if a.alias != nil {
		a.alias.InvalidateTopTours(ctx)
	}
	return nil
}

// RecomputeLogged runs Recompute and only logs on failure. A failed
// recomputation after a committed review write leaves the aggregate stale;
// the next successful trigger recomputes from scratch.
func (a *Aggregator) RecomputeLogged(ctx context.Context, tourID string) {
	if err := a.Recompute(ctx, tourID); err != nil {
		a.logger.Warn("rating recomputation failed; aggregate left stale",
			zap.String("tour", tourID), zap.Error(err))
	}
}
