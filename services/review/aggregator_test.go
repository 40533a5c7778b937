package review

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tourify/database/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStats serves rating aggregates computed from an in-memory review list.
type memStats struct {
	mu      sync.Mutex
	ratings map[string][]int
	err     error
}

func (m *memStats) RatingStats(ctx context.Context, tourID string) (repository.RatingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return repository.RatingStats{}, m.err
	}
	ratings := m.ratings[tourID]
	if len(ratings) == 0 {
		return repository.RatingStats{}, nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return repository.RatingStats{
		AvgRating:  float64(sum) / float64(len(ratings)),
		NumRatings: len(ratings),
	}, nil
}

// memWriter records the last aggregate written per tour.
type memWriter struct {
	mu       sync.Mutex
	avg      map[string]float64
	quantity map[string]int
	writes   int
	err      error
}

func newMemWriter() *memWriter {
	return &memWriter{avg: map[string]float64{}, quantity: map[string]int{}}
}

func (m *memWriter) SetRatingStats(ctx context.Context, tourID string, avg float64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.avg[tourID] = avg
	m.quantity[tourID] = quantity
	m.writes++
	return nil
}

// memAlias counts cache invalidations.
type memAlias struct {
	mu    sync.Mutex
	drops int
}

func (m *memAlias) InvalidateTopTours(ctx context.Context) {
	m.mu.Lock()
	m.drops++
	m.mu.Unlock()
}

func TestRecomputeTracksReviewLifecycle(t *testing.T) {
	stats := &memStats{ratings: map[string][]int{}}
	writer := newMemWriter()
	agg := NewAggregator(stats, writer, nil, zap.NewNop())
	ctx := context.Background()

	// Two reviews rated 5 and 3.
	stats.ratings["t1"] = []int{5, 3}
	require.NoError(t, agg.Recompute(ctx, "t1"))
	assert.Equal(t, 4.0, writer.avg["t1"])
	assert.Equal(t, 2, writer.quantity["t1"])

	// The 5 is deleted.
	stats.ratings["t1"] = []int{3}
	require.NoError(t, agg.Recompute(ctx, "t1"))
	assert.Equal(t, 3.0, writer.avg["t1"])
	assert.Equal(t, 1, writer.quantity["t1"])

	// The last review is deleted; the aggregate returns to its defaults
	// rather than holding stale values.
	stats.ratings["t1"] = nil
	require.NoError(t, agg.Recompute(ctx, "t1"))
	assert.Equal(t, 0.0, writer.avg["t1"])
	assert.Equal(t, 0, writer.quantity["t1"])
}

func TestRecomputePropagatesErrors(t *testing.T) {
	stats := &memStats{ratings: map[string][]int{}, err: errors.New("cursor timeout")}
	writer := newMemWriter()
	agg := NewAggregator(stats, writer, nil, zap.NewNop())

	err := agg.Recompute(context.Background(), "t1")
	assert.Error(t, err)
	assert.Zero(t, writer.writes)
}

func TestRecomputeLoggedSwallowsErrors(t *testing.T) {
	stats := &memStats{ratings: map[string][]int{}}
	writer := newMemWriter()
	writer.err = errors.New("write concern failure")
	agg := NewAggregator(stats, writer, nil, zap.NewNop())

	// Must not panic or propagate; the next successful trigger repairs the
	// aggregate.
	agg.RecomputeLogged(context.Background(), "t1")
}

func TestRecomputeConcurrentSameTour(t *testing.T) {
	stats := &memStats{ratings: map[string][]int{"t1": {4, 4, 5}}}
	writer := newMemWriter()
	agg := NewAggregator(stats, writer, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, agg.Recompute(context.Background(), "t1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, writer.writes)
	assert.InDelta(t, 13.0/3.0, writer.avg["t1"], 1e-9)
	assert.Equal(t, 3, writer.quantity["t1"])
}

func TestRecomputeInvalidatesRatingOrderedCache(t *testing.T) {
	stats := &memStats{ratings: map[string][]int{"t1": {5}}}
	writer := newMemWriter()
	alias := &memAlias{}
	agg := NewAggregator(stats, writer, alias, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, agg.Recompute(ctx, "t1"))
	assert.Equal(t, 1, alias.drops)

	// A failed aggregate write leaves the cache alone; nothing changed.
	writer.err = errors.New("write concern failure")
	assert.Error(t, agg.Recompute(ctx, "t1"))
	assert.Equal(t, 1, alias.drops)
}

func TestLockMapReleasedAfterRecompute(t *testing.T) {
	stats := &memStats{ratings: map[string][]int{}}
	writer := newMemWriter()
	agg := NewAggregator(stats, writer, nil, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		tour := string(rune('a' + i))
		stats.mu.Lock()
		stats.ratings[tour] = []int{3}
		stats.mu.Unlock()
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, agg.Recompute(ctx, tour))
			}()
		}
	}
	wg.Wait()

	agg.mu.Lock()
	defer agg.mu.Unlock()
	assert.Empty(t, agg.locks)
}
