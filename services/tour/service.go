package tour

import (
	"context"
	"encoding/json"
	"time"

	"tourify/database/query"
	"tourify/database/repository"
	"tourify/models"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	topToursCacheKey = "tours:top-5-cheap"
	topToursCacheTTL = 10 * time.Minute
)

// Cache is the slice of the redis client the alias cache needs. Satisfied by
// *redis.Client.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service serves the tour read paths that go beyond plain CRUD: the cached
// top-tours alias and the reporting/geo aggregations.
type Service struct {
	Tours  *repository.TourRepo
	Cache  Cache
	Logger *zap.Logger
}

// TopTours returns the five best-rated cheap tours through a redis
// read-through cache. Cache failures degrade to a direct read.
func (s *Service) TopTours(ctx context.Context) ([]models.Tour, error) {
	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, topToursCacheKey).Result(); err == nil {
			var tours []models.Tour
			if err := json.Unmarshal([]byte(cached), &tours); err == nil {
				return tours, nil
			}
		} else if err != redis.Nil {
			s.Logger.Warn("top tours cache read failed", zap.Error(err))
		}
	}

	opts := &query.Options{
		Filter: bson.M{"secretTour": bson.M{"$ne": true}},
		Sort:   bson.D{{Key: "ratingsAverage", Value: -1}, {Key: "price", Value: 1}},
		Projection: bson.M{
			"id": 1, "name": 1, "price": 1, "ratingsAverage": 1,
			"summary": 1, "difficulty": 1, "slug": 1,
		},
		Limit: 5,
	}
	tours, err := s.Tours.Find(ctx, opts)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if encoded, err := json.Marshal(tours); err == nil {
			if err := s.Cache.Set(ctx, topToursCacheKey, encoded, topToursCacheTTL).Err(); err != nil {
				s.Logger.Warn("top tours cache write failed", zap.Error(err))
			}
		}
	}
	return tours, nil
}

// InvalidateTopTours drops the alias cache after a tour mutation.
func (s *Service) InvalidateTopTours(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, topToursCacheKey).Err(); err != nil {
		s.Logger.Warn("top tours cache invalidation failed", zap.Error(err))
	}
}

// Stats proxies the per-difficulty statistics aggregation.
func (s *Service) Stats(ctx context.Context) ([]models.TourStats, error) {
	return s.Tours.Stats(ctx)
}

// MonthlyPlan proxies the start-date plan aggregation.
func (s *Service) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlanEntry, error) {
	return s.Tours.MonthlyPlan(ctx, year)
}

// Within proxies the geo containment query.
func (s *Service) Within(ctx context.Context, lat, lng, radius float64) ([]models.Tour, error) {
	return s.Tours.Within(ctx, lat, lng, radius)
}

// Distances proxies the geo distance aggregation.
func (s *Service) Distances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error) {
	return s.Tours.Distances(ctx, lat, lng, multiplier)
}
